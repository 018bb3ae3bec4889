package client

import (
	"context"
	"sync"

	"github.com/skywatch/solarscope/internal/model"
)

// Phase is the lifecycle state of a content list.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

// FormMode tracks which editing form, if any, is open. The add form and the
// edit form are mutually exclusive.
type FormMode int

const (
	FormIdle FormMode = iota
	FormAdding
	FormEditing
)

// ListController manages one domain collection plus its UI state. The list
// always renders the local mirror: mutations update it only after the server
// call succeeds, and it is never re-fetched afterwards, so concurrent writers
// elsewhere can make it stale. A generation counter keeps responses that
// outlive a reload from touching state they no longer own.
type ListController struct {
	mu     sync.Mutex
	api    *Client
	domain model.Domain

	gen        int
	phase      Phase
	errMsg     string
	user       *model.Profile
	records    []model.Body
	expandedID int64
	mode       FormMode
	editID     int64
	draft      map[string]string
}

// NewListController creates a controller for one content collection.
func NewListController(api *Client, d model.Domain) *ListController {
	return &ListController{api: api, domain: d, phase: PhaseLoading}
}

// Load resolves the session, then fetches the collection. The session check
// always completes before the fetch is issued.
func (c *ListController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.phase = PhaseLoading
	c.errMsg = ""
	c.mu.Unlock()

	user, err := c.api.CheckAuth(ctx)
	if err != nil {
		return c.loadFailed(gen, err)
	}
	records, err := c.api.ListBodies(ctx, c.domain)
	if err != nil {
		return c.loadFailed(gen, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer load owns the state now.
		return nil
	}
	c.user = user
	c.records = records
	c.phase = PhaseReady
	return nil
}

func (c *ListController) loadFailed(gen int, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.phase = PhaseError
		c.errMsg = err.Error()
	}
	return err
}

// DismissError clears the error and shows the (possibly empty) content view.
// It deliberately does not trigger a re-fetch; the user retries the action.
func (c *ListController) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
	if c.phase == PhaseError {
		c.phase = PhaseReady
	}
}

// ToggleExpand opens the record's detail view, closing any other open one.
// Toggling the open record closes it; at most one record is expanded.
func (c *ListController) ToggleExpand(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expandedID == id {
		c.expandedID = 0
	} else {
		c.expandedID = id
	}
}

// StartAdd opens a blank add form.
func (c *ListController) StartAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = FormAdding
	c.editID = 0
	c.draft = make(map[string]string)
}

// StartEdit opens the edit form pre-filled from the record with the given ID.
func (c *ListController) StartEdit(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		if rec.ID == id {
			c.mode = FormEditing
			c.editID = id
			c.draft = rec.Clone().Attrs
			return
		}
	}
}

// Cancel closes any open form, discarding unsaved fields.
func (c *ListController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = FormIdle
	c.editID = 0
	c.draft = nil
}

// SetField updates one draft field of the open form.
func (c *ListController) SetField(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil || !c.domain.HasField(key) {
		return
	}
	c.draft[key] = value
}

// Add creates a record from the draft. On success the record joins the local
// mirror with the server-assigned ID and the form closes; on failure the
// form stays open with the error surfaced.
func (c *ListController) Add(ctx context.Context) error {
	c.mu.Lock()
	gen := c.gen
	attrs := c.draftAttrs()
	c.mu.Unlock()

	id, err := c.api.CreateBody(ctx, c.domain, attrs)
	if err != nil {
		c.surface(gen, "Failed to add "+c.domain.Title+": "+err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.records = append(c.records, model.Body{ID: id, Attrs: attrs})
	c.mode = FormIdle
	c.draft = nil
	return nil
}

// Update saves the edit form to the server, then replaces the matching
// record in the local mirror. Editing a record without an ID is a local
// validation failure; no request is made.
func (c *ListController) Update(ctx context.Context) error {
	c.mu.Lock()
	if c.editID == 0 {
		c.errMsg = "Failed to update " + c.domain.Title + ": " + ErrMissingID.Error()
		c.mu.Unlock()
		return ErrMissingID
	}
	gen := c.gen
	rec := model.Body{ID: c.editID, Attrs: c.draftAttrs()}
	c.mu.Unlock()

	if err := c.api.UpdateBody(ctx, c.domain, rec); err != nil {
		c.surface(gen, "Failed to update "+c.domain.Title+": "+err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	for i := range c.records {
		if c.records[i].ID == rec.ID {
			c.records[i] = rec
			break
		}
	}
	c.mode = FormIdle
	c.editID = 0
	c.draft = nil
	return nil
}

// Delete removes a record. Callers confirm with the user first. Expansion is
// keyed by ID, so removing a record never shifts another record's open state.
func (c *ListController) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	if err := c.api.DeleteBody(ctx, c.domain, id); err != nil {
		c.surface(gen, "Failed to delete "+c.domain.Title+": "+err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	kept := c.records[:0]
	for _, rec := range c.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	c.records = kept
	if c.expandedID == id {
		c.expandedID = 0
	}
	return nil
}

// surface records a mutation failure message without leaving the Ready phase.
func (c *ListController) surface(gen int, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.errMsg = msg
	}
}

// draftAttrs snapshots the draft with every schema field present.
// Callers must hold c.mu.
func (c *ListController) draftAttrs() map[string]string {
	attrs := make(map[string]string, len(c.domain.Fields))
	for _, f := range c.domain.Fields {
		attrs[f.Key] = c.draft[f.Key]
	}
	return attrs
}

// Phase returns the lifecycle state.
func (c *ListController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the current user-visible error message, or "".
func (c *ListController) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Records returns a snapshot of the local mirror.
func (c *ListController) Records() []model.Body {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Body, len(c.records))
	for i, rec := range c.records {
		out[i] = rec.Clone()
	}
	return out
}

// User returns the resolved session identity, or nil when anonymous.
func (c *ListController) User() *model.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// IsAdmin reports whether the resolved session may edit content.
func (c *ListController) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil && c.user.IsAdmin()
}

// ExpandedID returns the open record's ID, or 0 when all are collapsed.
func (c *ListController) ExpandedID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expandedID
}

// Mode returns the editing form state.
func (c *ListController) Mode() FormMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// EditID returns the record targeted by the edit form, or 0.
func (c *ListController) EditID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editID
}

// Field returns one draft field of the open form.
func (c *ListController) Field(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft[key]
}

// Domain returns the collection config this controller drives.
func (c *ListController) Domain() model.Domain {
	return c.domain
}
