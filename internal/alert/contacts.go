package alert

// HospitalSearchURL opens a map search for the nearest hospital.
const HospitalSearchURL = "https://www.google.com/maps/search/nearest+hospital"

// Contact is one emergency service and its numbers.
type Contact struct {
	Service string
	Numbers []string
}

// EmergencyContacts returns the fixed regional emergency numbers.
func EmergencyContacts() []Contact {
	return []Contact{
		{Service: "Ambulance", Numbers: []string{"102", "108"}},
		{Service: "Police", Numbers: []string{"100"}},
		{Service: "Fire", Numbers: []string{"101"}},
	}
}
