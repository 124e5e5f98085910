package bootstrap

import (
	"context"
	"strings"

	authservice "github.com/carbonchain/carbonchain-backend/internal/auth/service"
	escrowdomain "github.com/carbonchain/carbonchain-backend/internal/escrow/domain"
)

// userDirectory names escrow parties after registered accounts. Ids with no
// account fall back to the shortened id.
type userDirectory struct {
	users authservice.Repository
}

func (d userDirectory) Lookup(ctx context.Context, id string) (escrowdomain.Party, bool) {
	u, err := d.users.GetByID(ctx, id)
	if err != nil || u == nil {
		return escrowdomain.Party{}, false
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Email
	}
	return escrowdomain.Party{DisplayName: name, Email: u.Email}, true
}
