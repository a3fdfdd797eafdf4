package enums

import "fmt"

// CashbackRole identifies the stakeholder a cashback entry is addressed to.
type CashbackRole string

const (
	CashbackRoleConsumer         CashbackRole = "consumer"
	CashbackRoleClub             CashbackRole = "club"
	CashbackRoleConsumerReferrer CashbackRole = "consumer_referrer"
	CashbackRoleMerchantReferrer CashbackRole = "merchant_referrer"
)

// AllCashbackRoles lists every role in the order entries are written.
var AllCashbackRoles = []CashbackRole{
	CashbackRoleConsumer,
	CashbackRoleClub,
	CashbackRoleConsumerReferrer,
	CashbackRoleMerchantReferrer,
}

// IsValid reports whether the value matches the canonical role enum.
func (r CashbackRole) IsValid() bool {
	for _, candidate := range AllCashbackRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCashbackRole converts raw input into CashbackRole.
func ParseCashbackRole(value string) (CashbackRole, error) {
	for _, candidate := range AllCashbackRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashback role %q", value)
}
