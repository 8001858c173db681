package reports

import (
	"context"
	"sort"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/common/log"
	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Service interface {
	ChildWelfare(ctx context.Context) ([]store.Child, map[string][]store.HealthRecord, error)
	EducationalPerformance(ctx context.Context) ([]store.EducationalRecord, map[string]store.Child, error)
	HealthRecords(ctx context.Context) ([]store.HealthRecord, map[string]store.Child, error)
}

type ReportService struct {
	Store interface {
		ListChildrenByName(tx *gorm.DB) ([]store.Child, error)
		FindChildrenByIds(tx *gorm.DB, childIds []string) (map[string]store.Child, error)
		ListHealthRecords(tx *gorm.DB, childId string) ([]store.HealthRecord, error)
		ListEducationalRecords(tx *gorm.DB, childId string) ([]store.EducationalRecord, error)
	} `inject:""`
	Logger *log.Logger `inject:""`
}

// ChildWelfare returns every child by name, with the health records of each
// child keyed by child id.
func (c *ReportService) ChildWelfare(ctx context.Context) ([]store.Child, map[string][]store.HealthRecord, error) {
	children, err := c.Store.ListChildrenByName(nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build child welfare report")
	}
	records, err := c.Store.ListHealthRecords(nil, "")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build child welfare report")
	}
	byChild := map[string][]store.HealthRecord{}
	for _, record := range records {
		byChild[record.ChildId.String] = append(byChild[record.ChildId.String], record)
	}
	return children, byChild, nil
}

func (c *ReportService) EducationalPerformance(ctx context.Context) ([]store.EducationalRecord, map[string]store.Child, error) {
	records, err := c.Store.ListEducationalRecords(nil, "")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build educational performance report")
	}
	childIds := make([]string, 0, len(records))
	for _, record := range records {
		childIds = append(childIds, record.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build educational performance report")
	}
	sort.SliceStable(records, func(i, j int) bool {
		return byChildName(children, records[i].ChildId.String, records[j].ChildId.String)
	})
	return records, children, nil
}

func (c *ReportService) HealthRecords(ctx context.Context) ([]store.HealthRecord, map[string]store.Child, error) {
	records, err := c.Store.ListHealthRecords(nil, "")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build health records report")
	}
	childIds := make([]string, 0, len(records))
	for _, record := range records {
		childIds = append(childIds, record.ChildId.String)
	}
	children, err := c.Store.FindChildrenByIds(nil, childIds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build health records report")
	}
	sort.SliceStable(records, func(i, j int) bool {
		return byChildName(children, records[i].ChildId.String, records[j].ChildId.String)
	})
	return records, children, nil
}

// byChildName orders by last name then first name. Records whose child is
// gone sort last.
func byChildName(children map[string]store.Child, left, right string) bool {
	l, lok := children[left]
	r, rok := children[right]
	if !lok || !rok {
		return lok && !rok
	}
	if last := strings.Compare(strings.ToLower(l.LastName.String), strings.ToLower(r.LastName.String)); last != 0 {
		return last < 0
	}
	return strings.ToLower(l.FirstName.String) < strings.ToLower(r.FirstName.String)
}
