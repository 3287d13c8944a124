package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/budget-engine/backend-go/internal/domain"
	"github.com/lib/pq"
)

// buildMovementFilterClause constructs the SQL predicates for a movement filter
func buildMovementFilterClause(filter domain.MovementFilter, alias string, startIndex int) (string, []interface{}) {
	alias = normalizeAlias(alias)

	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if !filter.From.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%smovement_date >= $%d::date", alias, idx))
		args = append(args, filter.From)
		idx++
	}

	if !filter.To.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%smovement_date <= $%d::date", alias, idx))
		args = append(args, filter.To)
		idx++
	}

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		clauses = append(clauses, fmt.Sprintf("%smovement_type = ANY($%d::text[])", alias, idx))
		args = append(args, pq.Array(types))
		idx++
	}

	if len(filter.Stores) > 0 {
		if filter.MatchDestination {
			clauses = append(clauses, fmt.Sprintf("(%[1]sstore = ANY($%[2]d::text[]) OR %[1]sdestination_store = ANY($%[2]d::text[]))", alias, idx))
		} else {
			clauses = append(clauses, fmt.Sprintf("%sstore = ANY($%d::text[])", alias, idx))
		}
		args = append(args, pq.Array(filter.Stores))
		idx++
	}

	if filter.Supplier != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(%ssupplier) = LOWER($%d)", alias, idx))
		args = append(args, filter.Supplier)
		idx++
	}

	if q := strings.TrimSpace(filter.Search); q != "" {
		clauses = append(clauses, fmt.Sprintf("(%[1]sproduct_code ILIKE $%[2]d OR %[1]sdescription ILIKE $%[2]d)", alias, idx))
		args = append(args, "%"+escapeLike(q)+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
