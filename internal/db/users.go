package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ALT-F4-LLC/dinnerplan/internal/model"
)

const userColumns = `id, username, password_hash, role`

// CreateUser inserts a new user and returns its ID. A taken username yields
// ErrConflict.
func CreateUser(db *sql.DB, user *model.User) (int, error) {
	id, err := InsertUser(db, user)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("username %q: %w", user.Username, ErrConflict)
	}
	return id, err
}

// InsertUser saves a user with a store-assigned ID. The caller's ID field is
// ignored. Safe to call inside a transaction.
func InsertUser(ex execer, user *model.User) (int, error) {
	res, err := ex.Exec(
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		string(user.Role),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting user %q: %w", user.Username, err)
	}
	return lastInsertID(res)
}

// GetUser retrieves a user by ID.
func GetUser(q querier, id int) (*model.User, error) {
	row := q.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by their unique username.
func GetUserByUsername(q querier, username string) (*model.User, error) {
	row := q.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListAllUsers returns every user ordered by ID.
func ListAllUsers(q querier) ([]*model.User, error) {
	rows, err := q.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying all users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// DeleteAllUsers removes every user. Events organized by them must already be gone.
func DeleteAllUsers(ex execer) error {
	return deleteAll(ex, "users")
}

func scanUserFrom(s scanner) (*model.User, error) {
	var u model.User
	if err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
		return nil, err
	}
	return &u, nil
}

// scanUser scans a single user from a *sql.Row, returning ErrNotFound
// for sql.ErrNoRows.
func scanUser(row *sql.Row) (*model.User, error) {
	u, err := scanUserFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}
