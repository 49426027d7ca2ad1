package racingapi

// Typed response documents for the racing API. Field names mirror the
// provider's JSON keys; all values arrive as strings and are parsed
// downstream by the fetchers.

// CourseDoc is one course from GET /v1/courses.
type CourseDoc struct {
	ID         string `json:"id"`
	Course     string `json:"course"`
	RegionCode string `json:"region_code"`
	Region     string `json:"region"`
	Latitude   string `json:"latitude,omitempty"`
	Longitude  string `json:"longitude,omitempty"`
}

// BookmakerDoc is one bookmaker from GET /v1/bookmakers.
type BookmakerDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// PersonDoc is one jockey, trainer or owner from the people endpoints.
// Location is only populated for trainers, and only when present.
type PersonDoc struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// PersonPage is one page of a paginated people endpoint.
type PersonPage struct {
	People []PersonDoc `json:"people"`
	Total  int         `json:"total"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}

// HasMore reports whether another page follows this one.
func (p PersonPage) HasMore() bool {
	return (p.Page+1)*p.Limit < p.Total
}

// RacecardDoc is one race from GET /v1/racecards/pro.
type RacecardDoc struct {
	RaceID     string      `json:"race_id"`
	Date       string      `json:"date"`
	OffDT      string      `json:"off_dt"`
	CourseID   string      `json:"course_id"`
	Course     string      `json:"course"`
	RaceName   string      `json:"race_name"`
	Region     string      `json:"region"`
	RaceClass  string      `json:"race_class"`
	Pattern    string      `json:"pattern"`
	Type       string      `json:"type"`
	AgeBand    string      `json:"age_band"`
	RatingBand string      `json:"rating_band"`
	Distance   string      `json:"distance"`
	DistanceF  string      `json:"distance_f"`
	Going      string      `json:"going"`
	Prize      string      `json:"prize"`
	FieldSize  string      `json:"field_size"`
	Runners    []RunnerDoc `json:"runners"`
}

// RunnerDoc is one racecard entry.
type RunnerDoc struct {
	HorseID         string `json:"horse_id"`
	Horse           string `json:"horse"`
	Dob             string `json:"dob"`
	Sex             string `json:"sex"`
	Colour          string `json:"colour"`
	Region          string `json:"region"`
	Number          string `json:"number"`
	Draw            string `json:"draw"`
	Lbs             string `json:"lbs"`
	Age             string `json:"age"`
	Form            string `json:"form"`
	Ofr             string `json:"ofr"`
	Headgear        string `json:"headgear"`
	SilkURL         string `json:"silk_url"`
	JockeyID        string `json:"jockey_id"`
	Jockey          string `json:"jockey"`
	JockeyClaimLbs  string `json:"jockey_claim_lbs"`
	TrainerID       string `json:"trainer_id"`
	Trainer         string `json:"trainer"`
	TrainerLocation string `json:"trainer_location"`
	OwnerID         string `json:"owner_id"`
	Owner           string `json:"owner"`
	SireID          string `json:"sire_id"`
	Sire            string `json:"sire"`
	DamID           string `json:"dam_id"`
	Dam             string `json:"dam"`
	DamsireID       string `json:"damsire_id"`
	Damsire         string `json:"damsire"`
}

// ResultDoc is one race from GET /v1/results. It repeats the race's
// card-level fields, so a result arriving before its racecard still
// yields a complete race row.
type ResultDoc struct {
	RaceID      string            `json:"race_id"`
	Date        string            `json:"date"`
	OffDT       string            `json:"off_dt"`
	CourseID    string            `json:"course_id"`
	Course      string            `json:"course"`
	RaceName    string            `json:"race_name"`
	Region      string            `json:"region"`
	RaceClass   string            `json:"class"`
	Pattern     string            `json:"pattern"`
	Type        string            `json:"type"`
	AgeBand     string            `json:"age_band"`
	RatingBand  string            `json:"rating_band"`
	Distance    string            `json:"dist"`
	DistanceF   string            `json:"dist_f"`
	Going       string            `json:"going"`
	WinningTime string            `json:"time"`
	ToteWin     string            `json:"tote_win"`
	TotePl      string            `json:"tote_pl"`
	ToteEx      string            `json:"tote_ex"`
	ToteCSF     string            `json:"tote_csf"`
	ToteTricast string            `json:"tote_tricast"`
	Comments    string            `json:"comments"`
	Runners     []ResultRunnerDoc `json:"runners"`
}

// ResultRunnerDoc is one runner's outcome within a result document.
type ResultRunnerDoc struct {
	HorseID   string `json:"horse_id"`
	Horse     string `json:"horse"`
	Position  string `json:"position"`
	Btn       string `json:"btn"`
	OvrBtn    string `json:"ovr_btn"`
	SP        string `json:"sp"`
	SPDec     string `json:"sp_dec"`
	Time      string `json:"time"`
	Prize     string `json:"prize"`
	Comment   string `json:"comment"`
	JockeyID  string `json:"jockey_id"`
	Jockey    string `json:"jockey"`
	TrainerID string `json:"trainer_id"`
	Trainer   string `json:"trainer"`
	OwnerID   string `json:"owner_id"`
	Owner     string `json:"owner"`
}

// HorseProDoc is the enrichment document from GET /v1/horses/{id}/pro.
type HorseProDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dob       string `json:"dob"`
	Sex       string `json:"sex"`
	SexCode   string `json:"sex_code"`
	Colour    string `json:"colour"`
	Region    string `json:"region"`
	Breeder   string `json:"breeder"`
	SireID    string `json:"sire_id"`
	Sire      string `json:"sire"`
	DamID     string `json:"dam_id"`
	Dam       string `json:"dam"`
	DamsireID string `json:"damsire_id"`
	Damsire   string `json:"damsire"`
}
