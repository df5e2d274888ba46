package engine

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/rollcall/internal/model"
	"github.com/roach88/rollcall/internal/store"
)

func normalizeCardID(cardID string) (string, error) {
	id := model.NormalizeCardID(cardID)
	if id == "" {
		return "", invalidArgument("card id is required")
	}
	return id, nil
}

// LinkCard binds cardID to name. Linking a card to the person it already
// belongs to is a no-op; linking it to anyone else fails with
// ErrCodeCardAlreadyLinked. Unlinked cards may be reassigned.
func (e *Engine) LinkCard(ctx context.Context, cardID, name string, now time.Time) (model.CardLink, error) {
	cardID, err := normalizeCardID(cardID)
	if err != nil {
		return model.CardLink{}, err
	}
	name, err = normalizeName(name)
	if err != nil {
		return model.CardLink{}, err
	}

	var (
		link    model.CardLink
		changed bool
	)
	err = e.update(ctx, "link card", func(tx store.Tx) error {
		changed = false
		if _, err := loadPerson(ctx, tx, name); err != nil {
			return err
		}

		existing, err := tx.Card(ctx, cardID)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return err
		case existing.Active && existing.PersonName == name:
			link = existing
			return nil
		case existing.Active:
			return &Error{
				Code:    ErrCodeCardAlreadyLinked,
				Message: "card is linked to another person",
				Card:    cardID,
				Person:  name,
				Other:   existing.PersonName,
			}
		}

		link = model.CardLink{CardID: cardID, PersonName: name, Active: true, LinkedAt: now}
		changed = true
		return tx.PutCard(ctx, link)
	})
	if err != nil {
		return model.CardLink{}, err
	}
	if changed {
		e.logger.Info("card linked", "card", cardID, "person", name)
	}
	return link, nil
}

// ResolveCard returns the person an active link points at.
func (e *Engine) ResolveCard(ctx context.Context, cardID string) (string, error) {
	cardID, err := normalizeCardID(cardID)
	if err != nil {
		return "", err
	}
	var name string
	err = e.view(ctx, "resolve card", func(tx store.Tx) error {
		link, err := tx.Card(ctx, cardID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !link.Active) {
			return cardNotFound(cardID)
		}
		if err != nil {
			return err
		}
		name = link.PersonName
		return nil
	})
	return name, err
}

// UnlinkCard deactivates the active link for cardID.
func (e *Engine) UnlinkCard(ctx context.Context, cardID string) (model.CardLink, error) {
	cardID, err := normalizeCardID(cardID)
	if err != nil {
		return model.CardLink{}, err
	}
	var link model.CardLink
	err = e.update(ctx, "unlink card", func(tx store.Tx) error {
		var err error
		link, err = tx.Card(ctx, cardID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !link.Active) {
			return cardNotFound(cardID)
		}
		if err != nil {
			return err
		}
		link.Active = false
		return tx.PutCard(ctx, link)
	})
	if err != nil {
		return model.CardLink{}, err
	}
	e.logger.Info("card unlinked", "card", cardID, "person", link.PersonName)
	return link, nil
}

// ListCards lists every card link, active or not, ordered by card id.
func (e *Engine) ListCards(ctx context.Context) ([]model.CardLink, error) {
	var links []model.CardLink
	err := e.view(ctx, "list cards", func(tx store.Tx) error {
		var err error
		links, err = tx.Cards(ctx)
		return err
	})
	return links, err
}

// RecordCardScan resolves cardID and records attendance for its person on
// the rfid channel.
func (e *Engine) RecordCardScan(ctx context.Context, cardID string, now time.Time) (Outcome, error) {
	name, err := e.ResolveCard(ctx, cardID)
	if err != nil {
		return Outcome{}, err
	}
	return e.RecordAttendance(ctx, name, model.ChannelRFID, now)
}
