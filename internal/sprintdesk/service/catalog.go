package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
)

// Catalog manages one collection of admin-maintained reference data.
type Catalog[T any, P interface {
	*T
	model.CatalogEntry
}] struct {
	svc   *Service
	name  string
	store repository.EntityStore[T]
	// check runs after validation on create and update
	check func(ctx context.Context, entry P) error
	// inUse blocks deletion while other documents reference the entry
	inUse func(ctx context.Context, id string) (bool, error)
}

func newCatalog[T any, P interface {
	*T
	model.CatalogEntry
}](svc *Service, name string, store repository.EntityStore[T]) *Catalog[T, P] {
	return &Catalog[T, P]{svc: svc, name: name, store: store}
}

func (c *Catalog[T, P]) List(ctx context.Context, req model.PageReq) (*model.Page[T], error) {
	req.Normalize()
	items, total, err := c.store.Find(ctx, nil, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req, total), nil
}

func (c *Catalog[T, P]) Get(ctx context.Context, id string) (*T, error) {
	return lookup(ctx, c.store, c.name, id)
}

func (c *Catalog[T, P]) Create(ctx context.Context, caller model.Caller, entry P) (*T, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if c.check != nil {
		if err := c.check(ctx, entry); err != nil {
			return nil, err
		}
	}

	entry.BaseRef().Init(c.svc.newID(), c.svc.clock())
	if err := c.store.Insert(ctx, (*T)(entry)); err != nil {
		return nil, conflictOnDuplicate(err, "%s already exists", c.name)
	}

	c.svc.audit(ctx, c.name+".create", caller, "id", entry.BaseRef().ID)
	return (*T)(entry), nil
}

func (c *Catalog[T, P]) Update(ctx context.Context, caller model.Caller, id string, entry P) (*T, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	current, err := lookup(ctx, c.store, c.name, id)
	if err != nil {
		return nil, err
	}
	if c.check != nil {
		if err := c.check(ctx, entry); err != nil {
			return nil, err
		}
	}

	entry.BaseRef().Carry(P(current).BaseRef(), c.svc.clock())
	if err := c.store.Replace(ctx, id, (*T)(entry)); err != nil {
		return nil, notFoundAs(conflictOnDuplicate(err, "%s already exists", c.name), c.name)
	}

	c.svc.audit(ctx, c.name+".update", caller, "id", id)
	return (*T)(entry), nil
}

func (c *Catalog[T, P]) Delete(ctx context.Context, caller model.Caller, id string) error {
	if _, err := lookup(ctx, c.store, c.name, id); err != nil {
		return err
	}
	if c.inUse != nil {
		used, err := c.inUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return newError(ErrConflict, "%s is still referenced", c.name)
		}
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return notFoundAs(err, c.name)
	}
	c.svc.audit(ctx, c.name+".delete", caller, "id", id)
	return nil
}
