package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kerhoff/eventsync/internal/repository"
)

// requiredGrants lists the table privileges a sync pass needs.
var requiredGrants = []struct {
	table     string
	privilege string
}{
	{"calendars", "INSERT"},
	{"calendars", "UPDATE"},
	{"calendars", "DELETE"},
	{"events", "INSERT"},
	{"events", "UPDATE"},
	{"events", "DELETE"},
	{"reminders", "INSERT"},
	{"reminders", "DELETE"},
	{"sync_state", "INSERT"},
	{"sync_state", "UPDATE"},
}

type grantChecker struct {
	db *sql.DB
}

// NewGrantChecker creates a checker for the privileges of the connected role
func NewGrantChecker(db *sql.DB) repository.GrantChecker {
	return &grantChecker{db: db}
}

// MissingGrants returns "<PRIVILEGE> on <table>" for every required privilege
// the current database role does not hold.
func (g *grantChecker) MissingGrants(ctx context.Context) ([]string, error) {
	query := `SELECT has_table_privilege(current_user, $1, $2)`

	var missing []string
	for _, grant := range requiredGrants {
		var ok bool
		if err := g.db.QueryRowContext(ctx, query, grant.table, grant.privilege).Scan(&ok); err != nil {
			return nil, fmt.Errorf("failed to check %s privilege on %s: %w", grant.privilege, grant.table, err)
		}
		if !ok {
			missing = append(missing, fmt.Sprintf("%s on %s", grant.privilege, grant.table))
		}
	}

	return missing, nil
}
