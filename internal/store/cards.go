package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rollcall/internal/model"
)

func (t *sqlTx) Card(ctx context.Context, cardID string) (model.CardLink, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT card_id, person_name, active, linked_at FROM card_links WHERE card_id = ?
	`, cardID)
	link, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CardLink{}, fmt.Errorf("card %q: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return model.CardLink{}, fmt.Errorf("get card: %w", err)
	}
	return link, nil
}

func (t *sqlTx) PutCard(ctx context.Context, link model.CardLink) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO card_links (card_id, person_name, active, linked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			person_name = excluded.person_name,
			active = excluded.active,
			linked_at = excluded.linked_at
	`, link.CardID, link.PersonName, link.Active, ts(link.LinkedAt))
	if err != nil {
		return fmt.Errorf("put card: %w", err)
	}
	return nil
}

func (t *sqlTx) Cards(ctx context.Context) ([]model.CardLink, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT card_id, person_name, active, linked_at FROM card_links
		ORDER BY card_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	links := []model.CardLink{}
	for rows.Next() {
		link, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return links, nil
}

func scanCard(r rowScanner) (model.CardLink, error) {
	var (
		link     model.CardLink
		linkedAt string
	)
	if err := r.Scan(&link.CardID, &link.PersonName, &link.Active, &linkedAt); err != nil {
		return model.CardLink{}, err
	}
	var err error
	if link.LinkedAt, err = parseTS(linkedAt); err != nil {
		return model.CardLink{}, fmt.Errorf("linked_at: %w", err)
	}
	return link, nil
}
