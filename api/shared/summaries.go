package shared

import (
	"github.com/sri-ravi13/Orphan-Management-System/common/store"
)

// ChildSummary is embedded in the responses of resources that reference a
// child.
type ChildSummary struct {
	Id        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserSummary struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func ChildSummaryOf(child store.Child) ChildSummary {
	return ChildSummary{
		Id:        child.ChildId.String,
		FirstName: child.FirstName.String,
		LastName:  child.LastName.String,
	}
}

func UserSummaryOf(user store.User) UserSummary {
	return UserSummary{
		Id:       user.UserId.String,
		Username: user.Username.String,
		Name:     user.Name.String,
	}
}

// ChildSummaryFrom looks a child up in byId. A dangling reference yields nil.
func ChildSummaryFrom(byId map[string]store.Child, childId string) *ChildSummary {
	child, ok := byId[childId]
	if !ok {
		return nil
	}
	summary := ChildSummaryOf(child)
	return &summary
}

func UserSummaryFrom(byId map[string]store.User, userId string) *UserSummary {
	user, ok := byId[userId]
	if !ok {
		return nil
	}
	summary := UserSummaryOf(user)
	return &summary
}
