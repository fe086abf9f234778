package model

import "strings"

// Role distinguishes the purchasing seat from team member seats.
type Role string

// Roles.
const (
	RoleMain   Role = "MAIN"
	RoleMember Role = "MEMBER"
)

// ClassifiedTicket pairs a raw ticket with its canonical category.
type ClassifiedTicket struct {
	RawTicket
	Category Category
	Adaptive bool
	Role     Role
}

// Partition holds every classified ticket of one transaction. Tickets with a
// blank transaction id each get their own partition.
type Partition struct {
	Key     string
	Tickets []ClassifiedTicket
}

// Reason explains why a unit is incomplete.
type Reason string

// Incomplete reasons.
const (
	ReasonMemberCount        Reason = "member_count"
	ReasonMissingAge         Reason = "missing_age"
	ReasonAgeOutOfRange      Reason = "age_out_of_range"
	ReasonMissingTransaction Reason = "missing_transaction"
	ReasonMissingMain        Reason = "missing_main"
	ReasonGenderRatio        Reason = "gender_ratio"
	ReasonUnclassified       Reason = "unclassified"
)

// Unit is a reconciled group of tickets representing one logical participant.
type Unit struct {
	TransactionID     string
	Category          Category
	EventDay          EventDay
	RequiredMembers   int
	RawName           string
	Members           []ClassifiedTicket
	Adaptive          bool
	Incomplete        bool
	Reasons           []Reason
	RepresentativeAge *int
	Bucket            string
}

// HasMain reports whether one of the members holds the MAIN role.
func (u *Unit) HasMain() bool {
	for _, m := range u.Members {
		if m.Role == RoleMain {
			return true
		}
	}
	return false
}

// Mixed reports whether the unit is a mixed-gender unit by name.
func (u *Unit) Mixed() bool {
	return strings.Contains(strings.ToUpper(u.RawName), "MIXED")
}

// TicketIDs lists member ticket ids in member order.
func (u *Unit) TicketIDs() []string {
	ids := make([]string, len(u.Members))
	for i, m := range u.Members {
		ids[i] = m.TicketID
	}
	return ids
}
