package render

import (
	"fmt"
	"strings"

	"hotspotcli/pkg/contracts/domain"
)

// UserScript returns the RouterOS fragment that provisions one voucher's
// credentials on the router. Time vouchers carry a session uptime limit so
// the router enforces the countdown; data vouchers carry a byte quota.
func UserScript(v *domain.Voucher, profileName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Voucher %s (%s)\n", v.Username, v.EntitlementDisplay())
	switch v.Kind {
	case domain.VoucherKindTime:
		fmt.Fprintf(&b, "/ip hotspot user add name=%q password=%q profile=%q limit-uptime=%ds\n",
			v.Username, v.Password, profileName, v.DurationSeconds)
	case domain.VoucherKindData:
		fmt.Fprintf(&b, "/ip hotspot user add name=%q password=%q profile=%q limit-bytes-total=%d\n",
			v.Username, v.Password, profileName, v.DataLimitMB*1024*1024)
	}
	return b.String()
}

// BatchUserScript concatenates user scripts for a whole batch
func BatchUserScript(vouchers []domain.Voucher, profileName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Batch provisioning: %d vouchers\n", len(vouchers))
	for i := range vouchers {
		b.WriteString(UserScript(&vouchers[i], profileName))
	}
	return b.String()
}

// CleanupScript returns the RouterOS fragment that removes the given
// usernames from the router, used after the expiry sweep.
func CleanupScript(usernames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Remove %d expired hotspot users\n", len(usernames))
	for _, username := range usernames {
		fmt.Fprintf(&b, "/ip hotspot user remove [find name=%q]\n", username)
	}
	return b.String()
}
