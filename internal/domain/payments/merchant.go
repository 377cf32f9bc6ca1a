package payments

// Merchant is the profile returned for a CUIT lookup.
type Merchant struct {
	CUIT         string `json:"cuit"`
	Name         string `json:"name"`
	FantasyName  string `json:"fantasyName"`
	Status       string `json:"status"`
	PersonType   string `json:"personType"`
	CategoryCode string `json:"categoryCode"`
	CVU          string `json:"cvu"`
}
