package scenario

import "strings"

// role is one role of a NetsBlox cloud project, grounded on
// room/netsblox_api.rs's RoleData/Project JSON shape.
type role struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Media string `json:"media"`
}

// project is the subset of a NetsBlox cloud project response this package
// needs: enough to rebuild the XML a script host loads.
type project struct {
	Name  string          `json:"name"`
	Roles map[string]role `json:"roles"`
}

// toXML rebuilds the project's XML serialization the way
// room/netsblox_api.rs's Project::to_xml does: one <role> per role,
// wrapped in a <room>.
func (p project) toXML() string {
	var roles []string
	for _, r := range p.Roles {
		roles = append(roles, r.toXML())
	}
	return `<room name="` + escapeAttr(p.Name) + `" app="NetsBlox">` + strings.Join(roles, " ") + `</room>`
}

func (r role) toXML() string {
	return `<role name="` + escapeAttr(r.Name) + `">` + r.Code + r.Media + `</role>`
}

func escapeAttr(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
