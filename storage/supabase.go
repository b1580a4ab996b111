package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate_admin/config"
	"estate_admin/httputil"
	"estate_admin/models"
)

// SupabaseMirror keeps a PostgREST table in step with the listing catalog.
// Rows are upserted by id and rows for deleted listings are removed.
type SupabaseMirror struct {
	url        string
	table      string
	serviceKey string
	client     *http.Client
	now        func() time.Time
}

func NewSupabaseMirror(cfg *config.SupabaseConfig) *SupabaseMirror {
	table := cfg.Table
	if table == "" {
		table = "properties"
	}
	return &SupabaseMirror{
		url:        strings.TrimRight(cfg.URL, "/"),
		table:      table,
		serviceKey: cfg.ServiceKey,
		client:     httputil.NewMirrorClient(cfg),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// MirrorListings upserts every listing, then prunes rows whose id is gone.
func (s *SupabaseMirror) MirrorListings(ctx context.Context, props []models.Property) error {
	synced := s.now()
	rows := make([]models.MirrorListing, 0, len(props))
	ids := make([]string, 0, len(props))
	for i := range props {
		rows = append(rows, models.BuildMirrorListing(&props[i], synced))
		ids = append(ids, props[i].ID)
	}

	if len(rows) > 0 {
		data, err := json.Marshal(rows)
		if err != nil {
			return err
		}
		if err := s.do(ctx, http.MethodPost, nil, data, "resolution=merge-duplicates"); err != nil {
			return fmt.Errorf("upsert listings: %w", err)
		}
	}

	if err := s.do(ctx, http.MethodDelete, pruneQuery(ids), nil, ""); err != nil {
		return fmt.Errorf("prune listings: %w", err)
	}
	return nil
}

// pruneQuery selects every row not in ids.
func pruneQuery(ids []string) url.Values {
	q := url.Values{}
	if len(ids) == 0 {
		q.Set("id", "not.is.null")
		return q
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
	}
	q.Set("id", "not.in.("+strings.Join(quoted, ",")+")")
	return q
}

func (s *SupabaseMirror) do(ctx context.Context, method string, query url.Values, body []byte, prefer string) error {
	endpoint := s.url + "/rest/v1/" + url.PathEscape(s.table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase error %d: %s", resp.StatusCode, string(msg))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
