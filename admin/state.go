package admin

import (
	"fmt"

	"github.com/sourcefinder/sourcefinder/client"
)

// Tab identifies one admin read model.
type Tab int

const (
	TabDocuments Tab = iota
	TabUsers
	TabMetrics

	tabCount
)

// Tabs lists every tab in display order.
func Tabs() []Tab { return []Tab{TabDocuments, TabUsers, TabMetrics} }

func (t Tab) valid() bool { return t >= 0 && t < tabCount }

func (t Tab) String() string {
	switch t {
	case TabDocuments:
		return "documents"
	case TabUsers:
		return "users"
	case TabMetrics:
		return "metrics"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// ParseTab maps a tab name back to its Tab.
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tab %q", s)
}

// TabState is the loading/error status shared by every tab.
type TabState struct {
	Loading bool
	Err     string // scoped to this tab; empty when the last reload succeeded
}

// UploadState describes the upload in flight.
type UploadState struct {
	Title    string
	FileName string
	Percent  int
}

type DocumentsState struct {
	TabState
	Items  []client.Document
	Upload *UploadState
}

type UsersState struct {
	TabState
	Items []client.UserRecord
}

type MetricsState struct {
	TabState
	Snapshot *client.MetricsSnapshot
}

// State is the whole admin view.
type State struct {
	Active    Tab
	Busy      bool   // a mutation is in flight
	ActionErr string // last mutation failure
	Documents DocumentsState
	Users     UsersState
	Metrics   MetricsState
}

func (s *State) tab(t Tab) *TabState {
	switch t {
	case TabUsers:
		return &s.Users.TabState
	case TabMetrics:
		return &s.Metrics.TabState
	default:
		return &s.Documents.TabState
	}
}

func (s State) clone() State {
	c := s
	c.Documents.Items = append([]client.Document(nil), s.Documents.Items...)
	c.Users.Items = append([]client.UserRecord(nil), s.Users.Items...)
	if s.Documents.Upload != nil {
		u := *s.Documents.Upload
		c.Documents.Upload = &u
	}
	if s.Metrics.Snapshot != nil {
		m := *s.Metrics.Snapshot
		m.LastEvents = append([]client.SearchEvent(nil), s.Metrics.Snapshot.LastEvents...)
		c.Metrics.Snapshot = &m
	}
	return c
}
