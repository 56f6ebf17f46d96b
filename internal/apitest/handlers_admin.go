package apitest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/sourcefinder/sourcefinder/client"
)

const maxUploadBytes = 64 << 20

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Documents())
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeMissingField(w, "body", "title")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeMissingField(w, "body", "file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "could not read file")
		return
	}
	if len(data) == 0 {
		writeDetail(w, http.StatusBadRequest, "Empty file")
		return
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	doc := &document{
		Document: client.Document{
			ID:          uuid.NewString(),
			Title:       title,
			Filename:    filepath.Base(hdr.Filename),
			ContentType: contentType,
			UploadedAt:  client.NewTimestamp(s.now().UTC()),
			Status:      "ready",
			NumPages:    pageCount(string(data)),
		},
		content: string(data),
	}
	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, doc.Document)
}

// handleDeleteDocument answers {ok:true} even for unknown ids.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["documentId"]
	s.mu.Lock()
	for i, d := range s.docs {
		if d.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.DeleteResponse{OK: true})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]client.UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.UserRecord)
	}
	s.mu.Unlock()
	sortUsersNewestFirst(out)
	writeJSON(w, http.StatusOK, out)
}

func sortUsersNewestFirst(users []client.UserRecord) {
	slices.SortFunc(users, func(a, b client.UserRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt.Time); c != 0 {
			return c
		}
		return strings.Compare(a.Email, b.Email)
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req client.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if !strfmt.IsEmail(req.Email) {
		writeMissingField(w, "body", "email")
		return
	}
	if req.Password == "" {
		writeMissingField(w, "body", "password")
		return
	}
	if req.Role == "" {
		req.Role = client.RoleUser
	}
	rec, err := s.createUser(req.Email, req.Password, req.Role)
	if errors.Is(err, errEmailTaken) {
		writeDetail(w, http.StatusBadRequest, detailEmailTaken)
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	var req client.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	var hash []byte
	if req.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.cost)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if hash != nil {
		u.hash = hash
	}
	writeJSON(w, http.StatusOK, u.UserRecord)
}

const maxRecentEvents = 50

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := client.MetricsSnapshot{
		TotalUsers:     len(s.users),
		TotalDocuments: len(s.docs),
		TotalSearches:  len(s.events),
		LastEvents:     []client.SearchEvent{},
	}
	for _, u := range s.users {
		if u.IsActive {
			m.ActiveUsers++
		}
	}
	since := s.now().Add(-24 * time.Hour)
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if !ev.CreatedAt.Before(since) {
			m.Searches24h++
		}
		if len(m.LastEvents) < maxRecentEvents {
			m.LastEvents = append(m.LastEvents, ev)
		}
	}
	writeJSON(w, http.StatusOK, m)
}
