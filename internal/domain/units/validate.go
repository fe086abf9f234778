package units

import (
	"strings"

	"github.com/okian/tally/internal/domain/ages"
	"github.com/okian/tally/internal/domain/model"
)

// Validate reports whether a unit is incomplete and every reason that applies.
// Reasons accumulate; a unit with several reasons is still a single unit.
func Validate(u *model.Unit) (bool, []model.Reason) {
	var reasons []model.Reason
	fam := u.Category.Family()

	if fam == model.FamilyUnclassified {
		reasons = append(reasons, model.ReasonUnclassified)
	}
	if len(u.Members) != u.RequiredMembers {
		reasons = append(reasons, model.ReasonMemberCount)
	}
	if fam.Athletic() {
		missing, outOfRange := false, false
		for _, m := range u.Members {
			switch {
			case m.Age == nil || *m.Age <= 0:
				missing = true
			case *m.Age > ages.MaxAge:
				outOfRange = true
			}
		}
		if missing {
			reasons = append(reasons, model.ReasonMissingAge)
		}
		if outOfRange {
			reasons = append(reasons, model.ReasonAgeOutOfRange)
		}
	}
	if strings.TrimSpace(u.TransactionID) == "" {
		reasons = append(reasons, model.ReasonMissingTransaction)
	}
	if u.RequiredMembers > 1 && !u.HasMain() {
		reasons = append(reasons, model.ReasonMissingMain)
	}
	if u.Mixed() && !genderRatioOK(u) {
		reasons = append(reasons, model.ReasonGenderRatio)
	}
	return len(reasons) > 0, reasons
}

// genderRatioOK checks the realized composition of a mixed unit: relays need
// two men and two women, doubles one of each.
func genderRatioOK(u *model.Unit) bool {
	var want int
	switch u.Category.Family() {
	case model.FamilyDouble:
		want = 1
	case model.FamilyRelay, model.FamilyCorporateRelay:
		want = 2
	default:
		return true
	}
	male, female := 0, 0
	for _, m := range u.Members {
		switch m.Gender {
		case model.GenderMale:
			male++
		case model.GenderFemale:
			female++
		}
	}
	return male == want && female == want
}

// Finish validates a unit in place and assigns its age bucket.
func Finish(u *model.Unit) {
	u.Incomplete, u.Reasons = Validate(u)
	ages.Assign(u)
}
