package store

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/leadbook/leadbook/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// leadFilter builds the WHERE condition for an owner's lead listing.
func leadFilter(ownerID string, f models.LeadFilter) sq.And {
	cond := sq.And{sq.Eq{"owner_id": ownerID}}

	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		cond = append(cond, sq.Or{
			sq.ILike{"full_name": pattern},
			sq.ILike{"email": pattern},
			sq.ILike{"phone": pattern},
		})
	}

	if f.City != "" {
		cond = append(cond, sq.Eq{"city": string(f.City)})
	}

	if f.PropertyType != "" {
		cond = append(cond, sq.Eq{"property_type": string(f.PropertyType)})
	}

	if f.Status != "" {
		cond = append(cond, sq.Eq{"status": string(f.Status)})
	}

	if f.Timeline != "" {
		cond = append(cond, sq.Eq{"timeline": string(f.Timeline)})
	}

	return cond
}
