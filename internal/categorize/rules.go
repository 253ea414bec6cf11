package categorize

import (
	"regexp"
	"strings"
)

// defaultRules is the curated keyword table, evaluated in order.
// Earlier rules win: interest income and card settlements are matched
// before the generic transfer markers they often ride on.
var defaultRules = []Rule{
	{Category: "interest_income", Keywords: []string{
		"CREDIT INTEREST", "INTEREST CREDIT", "INTEREST INCOME",
		"INTEREST PAID", "SAVINGS INTEREST", "INT.PD",
	}},
	{Category: "credit_card_payment", Keywords: []string{
		"SBI CARDS", "CARD PAYMENT", "CARD SETTLEMENT", "CARD BILL",
		"CREDIT CARD", "CC PAYMENT", "CARD REPAYMENT",
	}},
	{Category: "emi_loan", Keywords: []string{
		"EMI", "LOAN", "NBFC", "BAJAJ FINANCE", "HOMECREDIT",
		"HOME CREDIT", "FULLERTON", "ADITYA BIRLA FIN",
	}},
	{Category: "food_dining", Keywords: []string{
		"SWIGGY", "ZOMATO", "MCDONALD", "KFC", "BURGER KING",
		"DOMINOS", "DOMINO", "PIZZA HUT", "PIZZA", "HALDIRAM",
		"BARBEQUE", "INSTAMART", "RESTAURANT", "CAFE",
	}},
	{Category: "groceries", Keywords: []string{
		"DMART", "D'MART", "BIG BAZAAR", "BIGBAZAAR", "SPENCER",
		"RELIANCE SMART", "BIGBASKET", "BIG BASKET", "NATURE S BASKET",
		"NATURE'S BASKET", "GROCER",
	}},
	{Category: "entertainment", Keywords: []string{
		"NETFLIX", "SPOTIFY", "PVR", "INOX", "BOOKMYSHOW",
		"CINEMA", "MOVIE", "HOTSTAR",
	}},
	{Category: "travel", Keywords: []string{
		"OLA", "UBER", "RAPIDO", "IRCTC", "REDBUS", "RED BUS",
		"MAKEMYTRIP", "MAKE MY TRIP", "GOIBIBO", "BUS TICKET", "METRO RAIL",
	}},
	{Category: "healthcare", Keywords: []string{
		"HOSPITAL", "PHARMACY", "MEDICAL", "MEDPLUS", "MED PLUS",
		"APOLLO", "PRACTO", "GYM", "FITNESS", "CULT FIT", "CULTFIT",
	}},
	{Category: "fuel", Keywords: []string{
		"PETROL", "DIESEL", "FUEL", "INDIAN OIL", "IOCL",
		"HPCL", "BPCL", "BHARAT PETROLEUM",
	}},
	{Category: "bills_utilities", Keywords: []string{
		"AIRTEL", "JIO", "VODAFONE", "BSNL", "BROADBAND", "FIBER",
		"DTH", "ELECTRICITY", "BILLPAY", "RECHARGE", "WATER BILL",
	}},
	{Category: "shopping", Keywords: []string{
		"AMAZON", "FLIPKART", "MYNTRA", "AJIO", "PANTALOONS",
		"WESTSIDE", "LIFESTYLE", "SHOPPERS STOP",
	}},
	{Category: "income", Keywords: []string{
		"SALARY", "SAL CREDIT", "STIPEND", "PENSION",
	}},
	{Category: "rent", Keywords: []string{
		"RENT",
	}},
	{Category: "transfer", Keywords: []string{
		"NEFT", "IMPS", "RTGS", "BANK TRANSFER", "UPI P2P", "TRF",
	}},
}

// brandNames maps narration markers to merchant display names. Ordered
// slice rather than a map: longer, more specific markers come first.
var brandNames = []struct{ marker, name string }{
	{"BARBEQUE NATION", "Barbeque Nation"},
	{"BURGER KING", "Burger King"},
	{"BIG BAZAAR", "Big Bazaar"},
	{"BIGBASKET", "BigBasket"},
	{"BIG BASKET", "BigBasket"},
	{"RELIANCE SMART", "Reliance Smart"},
	{"MAKEMYTRIP", "MakeMyTrip"},
	{"PIZZA HUT", "Pizza Hut"},
	{"INDIAN OIL", "Indian Oil"},
	{"BHARAT PETROLEUM", "Bharat Petroleum"},
	{"BOOKMYSHOW", "BookMyShow"},
	{"SHOPPERS STOP", "Shoppers Stop"},
	{"MED PLUS", "MedPlus"},
	{"AMAZON", "Amazon"},
	{"FLIPKART", "Flipkart"},
	{"SWIGGY", "Swiggy"},
	{"ZOMATO", "Zomato"},
	{"MYNTRA", "Myntra"},
	{"NETFLIX", "Netflix"},
	{"SPOTIFY", "Spotify"},
	{"PAYTM", "Paytm"},
	{"PHONEPE", "PhonePe"},
	{"GPAY", "Google Pay"},
	{"DMART", "DMart"},
	{"MCDONALD", "McDonalds"},
	{"DOMINO", "Dominos Pizza"},
	{"KFC", "KFC"},
	{"HALDIRAM", "Haldiram"},
	{"UBER", "Uber"},
	{"RAPIDO", "Rapido"},
	{"IRCTC", "IRCTC"},
	{"REDBUS", "redBus"},
	{"GOIBIBO", "Goibibo"},
	{"APOLLO", "Apollo"},
	{"PRACTO", "Practo"},
	{"AIRTEL", "Airtel"},
	{"VODAFONE", "Vodafone"},
	{"MEDPLUS", "MedPlus"},
	{"PVR", "PVR"},
	{"INOX", "INOX"},
	{"IOCL", "Indian Oil"},
	{"HPCL", "HPCL"},
	{"BPCL", "Bharat Petroleum"},
	{"BSNL", "BSNL"},
	{"JIO", "Jio"},
	{"OLA", "Ola"},
}

var (
	upiHandlePattern = regexp.MustCompile(`([A-Za-z][A-Za-z0-9 &.]{2,30})@[A-Za-z]+`)
	longNumberRun    = regexp.MustCompile(`\d{4,}`)
	codeTokenRun     = regexp.MustCompile(`\b[A-Z]{2,}\d{4,}\b`)
	railMarkers      = regexp.MustCompile(`\b(UPI|POS|ATM|ATW|NEFT|IMPS|RTGS|ACH|TRF|TO|BY|DR|CR|P2M|P2P|REF|RRN|CLG|CHQ)\b`)
)

// Merchant extracts a human-readable counterparty name from the
// transaction text. It never returns an opaque identifier; when
// nothing recognizable is left, the defined fallback is "General".
func Merchant(text string) string {
	upper := strings.ToUpper(text)

	for _, brand := range brandNames {
		if strings.Contains(upper, brand.marker) {
			return brand.name
		}
	}

	// UPI handles carry the payee name part: "swiggystores@icici".
	if m := upiHandlePattern.FindStringSubmatch(text); m != nil {
		if name := titleCase(m[1]); name != "" {
			return name
		}
	}

	// Strip rail markers, reference numbers and code tokens, keep the
	// first few alphabetic words.
	cleaned := longNumberRun.ReplaceAllString(upper, " ")
	cleaned = codeTokenRun.ReplaceAllString(cleaned, " ")
	cleaned = railMarkers.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, "/", " ")
	cleaned = strings.ReplaceAll(cleaned, "-", " ")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) >= 3 && isAlpha(w) {
			words = append(words, w)
			if len(words) == 3 {
				break
			}
		}
	}
	if len(words) > 0 {
		return titleCase(strings.Join(words, " "))
	}
	return "General"
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
