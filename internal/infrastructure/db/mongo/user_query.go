package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/user-directory/internal/core/ports"
)

// sortKeys maps sort fields to document keys. Only id differs.
var sortKeys = map[ports.SortField]string{
	ports.SortByID:        "_id",
	ports.SortByUsername:  "username",
	ports.SortByEmail:     "email",
	ports.SortByFirstName: "first_name",
	ports.SortByLastName:  "last_name",
	ports.SortByRole:      "role",
	ports.SortByActive:    "active",
	ports.SortByCreatedAt: "created_at",
	ports.SortByUpdatedAt: "updated_at",
}

// containsFold matches documents whose field contains s, ignoring case. The
// input is quoted so user text never acts as a pattern.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// buildFilter translates a UserFilter into a query document. All conditions
// are ANDed; Search ORs across the four text fields.
func buildFilter(f ports.UserFilter) bson.M {
	filter := bson.M{}
	text := []struct {
		key, value string
	}{
		{"username", f.Username},
		{"email", f.Email},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
	}
	for _, t := range text {
		if t.value != "" {
			filter[t.key] = containsFold(t.value)
		}
	}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	if f.Search != "" {
		re := containsFold(f.Search)
		filter["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"email": re},
			bson.M{"first_name": re},
			bson.M{"last_name": re},
		}
	}
	return filter
}

// buildSort orders by the requested field with _id as the tie-breaker, both
// in the same direction.
func buildSort(field ports.SortField, desc bool) bson.D {
	dir := 1
	if desc {
		dir = -1
	}
	key, ok := sortKeys[field]
	if !ok {
		key = sortKeys[ports.DefaultSortField]
	}
	if key == "_id" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: dir}}
}
