package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/pathstore"
)

const (
	documentsPrefix = "cvsplit/documents"
	hashPrefix      = "cvsplit/by_hash"
)

// Pathstore keeps records in a remote pathstore service: the record at
// cvsplit/documents/{doc_id} and a dedup entry at
// cvsplit/by_hash/{hash}/{doc_id}.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client}
}

type hashEntry struct {
	DocID string `json:"doc_id"`
}

func (p *Pathstore) Save(ctx context.Context, rec *document.Record) error {
	if err := ValidateID(rec.DocID); err != nil {
		return err
	}
	err := p.client.PutNode(ctx, documentsPrefix+"/"+rec.DocID, pathstore.NodeRequest{
		Value:  rec,
		Source: "cvsplit:" + rec.DocID,
	})
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	if rec.ContentHash == "" {
		return nil
	}
	err = p.client.PutNode(ctx, hashPrefix+"/"+rec.ContentHash+"/"+rec.DocID, pathstore.NodeRequest{
		Value:  hashEntry{DocID: rec.DocID},
		Source: "cvsplit:" + rec.DocID,
	})
	if err != nil {
		return fmt.Errorf("put hash index: %w", err)
	}
	return nil
}

func (p *Pathstore) Get(ctx context.Context, docID string) (*document.Record, error) {
	if ValidateID(docID) != nil {
		return nil, ErrNotFound
	}
	node, err := p.client.GetNode(ctx, documentsPrefix+"/"+docID)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	var rec document.Record
	if err := json.Unmarshal(node.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", docID, err)
	}
	return &rec, nil
}

// List returns summaries, newest first.
func (p *Pathstore) List(ctx context.Context) ([]document.Summary, error) {
	nodes, err := p.client.ListChildren(ctx, documentsPrefix, 0)
	if err != nil {
		return nil, err
	}
	out := make([]document.Summary, 0, len(nodes))
	for _, n := range nodes {
		var rec document.Record
		if err := json.Unmarshal(n.Value, &rec); err != nil || rec.DocID == "" {
			continue
		}
		out = append(out, rec.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].DocID < out[j].DocID
	})
	return out, nil
}

func (p *Pathstore) Delete(ctx context.Context, docID string) error {
	rec, err := p.Get(ctx, docID)
	if err != nil {
		return err
	}
	if rec.ContentHash != "" {
		if err := p.client.DeleteNode(ctx, hashPrefix+"/"+rec.ContentHash+"/"+docID, false); err != nil {
			return fmt.Errorf("delete hash index: %w", err)
		}
	}
	if err := p.client.DeleteNode(ctx, documentsPrefix+"/"+docID, false); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (p *Pathstore) FindByHash(ctx context.Context, hash string) (string, error) {
	children, err := p.client.ListChildren(ctx, hashPrefix+"/"+hash, 1)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		var e hashEntry
		if err := json.Unmarshal(c.Value, &e); err == nil && e.DocID != "" {
			return e.DocID, nil
		}
	}
	return "", ErrNotFound
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
