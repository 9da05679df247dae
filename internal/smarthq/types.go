package smarthq

// Appliance is one entry of the owner's appliance list. Details responses
// reuse the same shape with brand/model/serial populated.
type Appliance struct {
	ApplianceID string `json:"applianceId"`
	JID         string `json:"jid"`
	Nickname    string `json:"nickname"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Serial      string `json:"serial"`
}

// ApplianceList is the /appliance response.
type ApplianceList struct {
	UserID string      `json:"userId"`
	Items  []Appliance `json:"items"`
}

type featureList struct {
	ApplianceID string   `json:"applianceId"`
	Features    []string `json:"features"`
}

type websocketInfo struct {
	Endpoint string `json:"endpoint"`
}

type erdValue struct {
	Value string `json:"value"`
}

// erdListEntry is the write envelope for a single property.
type erdListEntry struct {
	Kind        string `json:"kind"`
	UserID      string `json:"userId"`
	ApplianceID string `json:"applianceId"`
	Erd         string `json:"erd"`
	Value       string `json:"value"`
}

const erdListEntryKind = "appliance#erdListEntry"
