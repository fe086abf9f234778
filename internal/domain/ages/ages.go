// Package ages computes representative unit ages and resolves age buckets.
package ages

import (
	"github.com/okian/tally/internal/domain/model"
)

// Sentinel bucket names used alongside the age ranges.
const (
	BucketIncomplete = "Incomplete"
	BucketTotal      = "Total"
)

// MaxAge is the upper bound of every bucket table.
const MaxAge = 999

// Range is a closed age interval [Min, Max].
type Range struct {
	Name string
	Min  int
	Max  int
}

// Contains reports whether age falls inside the interval.
func (r Range) Contains(age int) bool { return age >= r.Min && age <= r.Max }

var (
	singleTable = []Range{
		{"U24", 0, 24},
		{"25-29", 25, 29},
		{"30-34", 30, 34},
		{"35-39", 35, 39},
		{"40-44", 40, 44},
		{"45-49", 45, 49},
		{"50-54", 50, 54},
		{"55-59", 55, 59},
		{"60-64", 60, 64},
		{"65-69", 65, 69},
		{"70+", 70, MaxAge},
	}
	doubleTable = []Range{
		{"U29", 0, 29},
		{"30-39", 30, 39},
		{"40-49", 40, 49},
		{"50-59", 50, 59},
		{"60-69", 60, 69},
		{"70+", 70, MaxAge},
	}
	relayTable = []Range{
		{"U40", 0, 39},
		{"40+", 40, MaxAge},
	}
)

// Table returns the bucket table for a family, or nil when the family does
// not carry ages.
func Table(f model.Family) []Range {
	switch f {
	case model.FamilySingle:
		return singleTable
	case model.FamilyDouble:
		return doubleTable
	case model.FamilyRelay, model.FamilyCorporateRelay:
		return relayTable
	}
	return nil
}

// Buckets lists bucket names of a family in table order, followed by the
// Incomplete and Total sentinels.
func Buckets(f model.Family) []string {
	t := Table(f)
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t)+2)
	for _, r := range t {
		out = append(out, r.Name)
	}
	return append(out, BucketIncomplete, BucketTotal)
}

// Order returns the position of a bucket name within the family's list, or
// -1 when unknown.
func Order(f model.Family, bucket string) int {
	for i, b := range Buckets(f) {
		if b == bucket {
			return i
		}
	}
	return -1
}

// Representative is floor(sum/n) over present members. It is nil when there
// are no members or any age is missing.
func Representative(members []model.ClassifiedTicket) *int {
	if len(members) == 0 {
		return nil
	}
	sum := 0
	for _, m := range members {
		if m.Age == nil || *m.Age <= 0 {
			return nil
		}
		sum += *m.Age
	}
	avg := sum / len(members)
	return &avg
}

// Bucket resolves the bucket name for an age, or false when the age is
// outside the table.
func Bucket(f model.Family, age int) (string, bool) {
	for _, r := range Table(f) {
		if r.Contains(age) {
			return r.Name, true
		}
	}
	return "", false
}

// Assign fills RepresentativeAge and Bucket on a validated unit. Incomplete
// units and units without an age land in the Incomplete bucket.
func Assign(u *model.Unit) {
	u.RepresentativeAge = Representative(u.Members)
	if !u.Category.Family().Athletic() {
		u.Bucket = ""
		return
	}
	if u.Incomplete || u.RepresentativeAge == nil {
		u.Bucket = BucketIncomplete
		return
	}
	if b, ok := Bucket(u.Category.Family(), *u.RepresentativeAge); ok {
		u.Bucket = b
		return
	}
	u.Bucket = BucketIncomplete
}
