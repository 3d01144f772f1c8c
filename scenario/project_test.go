package scenario

import "testing"

func TestProjectToXML(t *testing.T) {
	p := project{
		Name: `Say "Hi"`,
		Roles: map[string]role{
			"main": {Name: "main", Code: "<blocks></blocks>", Media: "<media></media>"},
		},
	}

	got := p.toXML()
	want := `<room name="Say \"Hi\"" app="NetsBlox"><role name="main"><blocks></blocks><media></media></role></room>`
	if got != want {
		t.Fatalf("toXML() = %q, want %q", got, want)
	}
}
