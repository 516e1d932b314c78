package auth

import (
	"pizza-service/apperrors"
	"pizza-service/models"
)

type Action string

const (
	ActionUpdateUser        Action = "user:update"
	ActionListUsers         Action = "user:list"
	ActionCreateFranchise   Action = "franchise:create"
	ActionDeleteFranchise   Action = "franchise:delete"
	ActionCreateStore       Action = "store:create"
	ActionDeleteStore       Action = "store:delete"
	ActionAddMenuItem       Action = "menu:add"
	ActionCreateOrder       Action = "order:create"
	ActionListOrders        Action = "order:list"
	ActionViewUserFranchise Action = "franchise:view-user"
)

// Resource is what an action targets. Only the fields relevant to the
// action need to be set.
type Resource struct {
	UserID    uint
	Franchise *models.Franchise
}

// Authorize decides whether identity may perform action on res. It returns
// an Unauthenticated error when an identity is required but absent and a
// Forbidden error when the identity lacks the role or ownership.
func Authorize(identity *Identity, action Action, res Resource) error {
	if identity == nil || identity.User == nil {
		return apperrors.Unauthenticated("unauthorized")
	}
	if identity.IsAdmin() {
		return nil
	}

	switch action {
	case ActionUpdateUser, ActionViewUserFranchise:
		if identity.UserID() == res.UserID {
			return nil
		}
	case ActionDeleteFranchise, ActionCreateStore, ActionDeleteStore:
		if res.Franchise != nil && res.Franchise.HasAdmin(identity.UserID()) {
			return nil
		}
	case ActionCreateOrder, ActionListOrders:
		return nil
	}

	return apperrors.Forbidden(forbiddenMessage(action))
}

func forbiddenMessage(action Action) string {
	switch action {
	case ActionUpdateUser, ActionListUsers:
		return "unauthorized"
	case ActionCreateFranchise:
		return "unable to create a franchise"
	case ActionDeleteFranchise:
		return "unable to delete a franchise"
	case ActionCreateStore:
		return "unable to create a store"
	case ActionDeleteStore:
		return "unable to delete a store"
	case ActionAddMenuItem:
		return "unable to add menu item"
	default:
		return "forbidden"
	}
}
