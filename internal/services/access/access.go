// Package access contains the authorization rules for playlists, the song
// catalog, and user administration. Every decision is a pure function of the
// acting user and the object, so the rules are easy to audit and to test.
package access

import (
	"norelock.dev/mixtape/backend/internal/models"
)

// CanReadPlaylist reports whether the user may view the playlist. Public
// playlists are readable by everyone, including anonymous visitors (nil
// user). Private playlists are readable by their owner only; no role, admin
// included, sees another user's private playlist.
func CanReadPlaylist(user *models.User, playlist *models.Playlist) bool {
	if playlist.IsPublic {
		return true
	}
	return user != nil && playlist.Owner == user.ID
}

// CanMutatePlaylist reports whether the user may change or delete the
// playlist. Content edits are owner-only regardless of role; an admin
// editing another user's playlist is denied like anyone else.
func CanMutatePlaylist(user *models.User, playlist *models.Playlist) bool {
	return user != nil && playlist.Owner == user.ID
}

// CanTogglePublish reports whether the user may change the playlist's
// visibility. Djs and admins may publish their own playlists; admins may
// also toggle anyone's. Regular users cannot publish at all.
func CanTogglePublish(user *models.User, playlist *models.Playlist) bool {
	if user == nil {
		return false
	}

	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDJ:
		return playlist.Owner == user.ID
	case models.RoleUser:
		return false
	default:
		return false
	}
}

// CanManageCatalog reports whether the user may add, edit, delete, or
// restrict songs in the catalog.
func CanManageCatalog(user *models.User) bool {
	if user == nil {
		return false
	}

	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser, models.RoleDJ:
		return false
	default:
		return false
	}
}

// CanManageUsers reports whether the user may change other accounts'
// roles and activation state.
func CanManageUsers(user *models.User) bool {
	if user == nil {
		return false
	}

	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser, models.RoleDJ:
		return false
	default:
		return false
	}
}
