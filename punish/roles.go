package punish

import (
	"fmt"

	"discord-automod/model"
)

// RoleManager reapplies persisted punitive roles when a user rejoins, so
// leaving and rejoining a guild does not shed an active mute. It only reads
// grants; the punishment path writes them and the scheduler removes them.
type RoleManager struct {
	grants model.GrantStore
}

func NewRoleManager(grants model.GrantStore) *RoleManager {
	return &RoleManager{grants: grants}
}

// OnUserRejoin returns the role ids to reapply for the member. The caller
// performs the actual role additions via the transport.
func (m *RoleManager) OnUserRejoin(guildID, userID string) ([]string, error) {
	grants, err := m.grants.GrantsFor(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role grants for user %s in guild %s: %w", userID, guildID, err)
	}

	roles := make([]string, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, g.RoleID)
	}
	return roles, nil
}
