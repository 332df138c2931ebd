package render

import "hotspotcli/pkg/contracts/domain"

// DefaultTemplates returns the stock template catalog seeded into storage on
// first start. Operators can edit or extend these rows afterwards.
func DefaultTemplates() []domain.ConfigTemplate {
	return []domain.ConfigTemplate{
		{
			ID:           "hotspot-basic",
			Name:         "Hotspot server setup",
			DeviceModel:  domain.ModelAgnostic,
			TemplateType: "hotspot",
			Body: `/ip hotspot profile set hsprof1 html-directory=hotspot login-by=http-chap
/ip hotspot user profile add name={{profile_name}} rate-limit={{rate_limit}} shared-users={{max_users}}
/ip hotspot set hs1 name={{hotspot_name}} address-pool=hs-pool
/ip dns set servers={{dns_server}}
/ip route add gateway={{gateway}}
`,
		},
		{
			ID:           "hotspot-login-page",
			Name:         "Login page variables",
			DeviceModel:  domain.ModelAgnostic,
			TemplateType: "hotspot",
			Body: `:local hotspotName "{{hotspot_name}}"
:local price "{{price}}"
:local entitlement "{{entitlement}}"
:local message "{{custom_message}}"
`,
		},
		{
			ID:           "queue-rb750",
			Name:         "Simple queue defaults (hEX lite)",
			DeviceModel:  "RB750",
			TemplateType: "hotspot",
			Body: `/queue simple add name={{hotspot_name}}-default target=192.168.88.0/24 max-limit={{upload_rate}}/{{download_rate}}
/ip dns set servers={{dns_server}}
`,
		},
	}
}
