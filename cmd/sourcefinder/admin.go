package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sourcefinder/sourcefinder/admin"
	"github.com/sourcefinder/sourcefinder/client"
)

const adminTimeout = 5 * time.Minute

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage documents and users (admin role required)",
	}

	docs := &cobra.Command{Use: "documents", Short: "Manage the document corpus"}
	docs.AddCommand(newDocumentsListCmd(opts), newDocumentsUploadCmd(opts), newDocumentsDeleteCmd(opts))

	users := &cobra.Command{Use: "users", Short: "Manage user accounts"}
	users.AddCommand(
		newUsersListCmd(opts),
		newUsersCreateCmd(opts),
		newUsersSetRoleCmd(opts),
		newUsersToggleActiveCmd(opts),
		newUsersSetPasswordCmd(opts),
	)

	cmd.AddCommand(docs, users, newMetricsCmd(opts))
	return cmd
}

// withAdmin opens the session, verifies the admin gate and runs fn.
func withAdmin(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, o *admin.Orchestrator) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
	defer cancel()

	a, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	o := admin.New(a.client, a.store)
	switch o.Access() {
	case admin.AccessGranted:
	case admin.AccessLogin:
		if snap := a.store.Snapshot(); snap.Err != nil {
			return fmt.Errorf("not logged in (run sourcefinder login): %w", snap.Err)
		}
		return fmt.Errorf("not logged in (run sourcefinder login)")
	default:
		return fmt.Errorf("admin role required")
	}
	return fn(ctx, o)
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// ---------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------

func newDocumentsListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				if err := o.Activate(ctx, admin.TabDocuments); err != nil {
					return err
				}
				items := o.Snapshot().Documents.Items
				if asJSON {
					printJSON(cmd.OutOrStdout(), items)
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tFILE\tSTATUS\tPAGES\tUPLOADED")
				for _, d := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", d.ID, d.Title, d.Filename, d.Status, d.NumPages, d.UploadedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newDocumentsUploadCmd(opts *rootOptions) *cobra.Command {
	var title, filePath string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a document for ingestion",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer f.Close()
			src := client.FileSource{Name: filepath.Base(filePath), Reader: f, Size: -1}
			if st, err := f.Stat(); err == nil {
				src.Size = st.Size()
			}
			if title == "" {
				title = strings.TrimSuffix(src.Name, filepath.Ext(src.Name))
			}

			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				stop := watchUpload(cmd.ErrOrStderr(), o)
				res, err := o.UploadDocument(ctx, title, src)
				stop()
				if err != nil {
					return err
				}
				if res.Document != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", res.Document.Title, res.Document.ID)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(res.Raw))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the document (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// watchUpload prints the upload percentage whenever it changes.
func watchUpload(w io.Writer, o *admin.Orchestrator) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		last := -1
		for {
			select {
			case <-done:
				if last >= 0 {
					fmt.Fprintln(w)
				}
				return
			case <-ticker.C:
				u := o.Snapshot().Documents.Upload
				if u == nil || u.Percent == last {
					continue
				}
				last = u.Percent
				fmt.Fprintf(w, "\rUploading %s: %3d%%", u.FileName, u.Percent)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func newDocumentsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				log.Debug().Str("document_id", args[0]).Msg("deleting document")
				if err := o.DeleteDocument(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d documents remain)\n", args[0], len(o.Snapshot().Documents.Items))
				return nil
			})
		},
	}
}

// ---------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------

func newUsersListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				if err := o.Activate(ctx, admin.TabUsers); err != nil {
					return err
				}
				items := o.Snapshot().Users.Items
				if asJSON {
					printJSON(cmd.OutOrStdout(), items)
					return nil
				}
				printUsers(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printUsers(w io.Writer, users []client.UserRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", u.ID, u.Email, u.Role, u.IsActive, u.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func newUsersCreateCmd(opts *rootOptions) *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.ValidateRole(role); err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				err := o.CreateUser(ctx, client.CreateUserRequest{Email: email, Password: password, Role: role})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", email, role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (required)")
	cmd.Flags().StringVar(&role, "role", client.RoleUser, "user or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// findUser reloads the users tab and looks up ref by id or email.
func findUser(ctx context.Context, o *admin.Orchestrator, ref string) (client.UserRecord, error) {
	if err := o.Activate(ctx, admin.TabUsers); err != nil {
		return client.UserRecord{}, err
	}
	for _, u := range o.Snapshot().Users.Items {
		if u.ID == ref || strings.EqualFold(u.Email, ref) {
			return u, nil
		}
	}
	return client.UserRecord{}, fmt.Errorf("user %q not found", ref)
}

func newUsersSetRoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <id|email> <user|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := args[1]
			if err := client.ValidateRole(role); err != nil {
				return err
			}
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				u, err := findUser(ctx, o, args[0])
				if err != nil {
					return err
				}
				if u.Role != role {
					if err := o.ToggleRole(ctx, u); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, role)
				return nil
			})
		},
	}
}

func newUsersToggleActiveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-active <id|email>",
		Short: "Enable a disabled account or disable an active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				u, err := findUser(ctx, o, args[0])
				if err != nil {
					return err
				}
				if err := o.ToggleActive(ctx, u); err != nil {
					return err
				}
				state := "disabled"
				if !u.IsActive {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", u.Email, state)
				return nil
			})
		},
	}
}

func newUsersSetPasswordCmd(opts *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "set-password <id|email>",
		Short: "Replace a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				u, err := findUser(ctx, o, args[0])
				if err != nil {
					return err
				}
				if err := o.SetPassword(ctx, u.ID, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "New password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ---------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show usage counters and recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, opts, func(ctx context.Context, o *admin.Orchestrator) error {
				if err := o.Activate(ctx, admin.TabMetrics); err != nil {
					return err
				}
				m := o.Snapshot().Metrics.Snapshot
				if m == nil {
					return fmt.Errorf("no metrics returned")
				}
				if asJSON {
					printJSON(cmd.OutOrStdout(), m)
					return nil
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Users:      %d (%d active)\n", m.TotalUsers, m.ActiveUsers)
				fmt.Fprintf(w, "Documents:  %d\n", m.TotalDocuments)
				fmt.Fprintf(w, "Searches:   %d (%d in the last 24h)\n", m.TotalSearches, m.Searches24h)
				if len(m.LastEvents) == 0 {
					return nil
				}
				fmt.Fprintln(w)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tQUERY\tFILE\tRESULTS\tMS")
				for _, e := range m.LastEvents {
					preview := ""
					if e.QueryPreview != nil {
						preview = *e.QueryPreview
					}
					fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%d\n", e.CreatedAt.Format(time.RFC3339), preview, e.HasFile, e.ResultsCount, e.DurationMS)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
