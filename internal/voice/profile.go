package voice

// Role is a courtroom speaker role.
type Role string

const (
	RoleJudge      Role = "judge"
	RoleProsecutor Role = "prosecutor"
	RoleLawyer     Role = "lawyer"
	RoleAccused    Role = "accused"
	RoleClerk      Role = "clerk"
	RoleAI         Role = "ai"
)

// Profile holds the prosody parameters for one speaker role. Rate is a
// multiplier applied to the coordinator's base speech rate.
type Profile struct {
	Pitch float64
	Rate  float64
}

// profiles is read-only configuration, immutable for the process lifetime.
var profiles = map[Role]Profile{
	RoleJudge:      {Pitch: 0.8, Rate: 0.9},
	RoleProsecutor: {Pitch: 1.1, Rate: 1.0},
	RoleLawyer:     {Pitch: 1.0, Rate: 1.0},
	RoleAccused:    {Pitch: 1.2, Rate: 1.0},
	RoleClerk:      {Pitch: 1.0, Rate: 1.1},
	RoleAI:         {Pitch: 0.9, Rate: 0.95},
}

// ProfileFor returns the prosody profile for a role, defaulting to neutral
// parameters for unknown roles.
func ProfileFor(role Role) Profile {
	if p, ok := profiles[role]; ok {
		return p
	}
	return Profile{Pitch: 1.0, Rate: 1.0}
}
