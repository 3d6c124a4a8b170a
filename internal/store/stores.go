package store

import "github.com/jmoiron/sqlx"

// Stores bundles the stores sharing one database handle.
type Stores struct {
	Tournaments   *TournamentStore
	Matches       *MatchStore
	Results       *ResultStore
	Users         *UserStore
	Notifications *NotificationStore
}

func NewStores(db *sqlx.DB) *Stores {
	return &Stores{
		Tournaments:   NewTournamentStore(db),
		Matches:       NewMatchStore(db),
		Results:       NewResultStore(db),
		Users:         NewUserStore(db),
		Notifications: NewNotificationStore(db),
	}
}
