// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"database/sql"

	_ "github.com/lib/pq"

	"staffbot-backend/internal/repository"
)

// Store bundles every repository over a shared connection pool.
type Store struct {
	DB *sql.DB

	Users       repository.UserRepository
	Invitations repository.InvitationRepository
	JoinReqs    repository.JoinRequestRepository
	Credentials repository.CredentialRepository
	Enrollments repository.EnrollmentRepository
	Reports     repository.ReportRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:          db,
		Users:       NewUserRepository(db),
		Invitations: NewInvitationRepository(db),
		JoinReqs:    NewJoinRequestRepository(db),
		Credentials: NewCredentialRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Reports:     NewReportRepository(db),
	}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
