package knowledgebase

// entry is a row of the knowledge base. Rows are matched in declaration
// order, so more specific keys must precede the generic ones containing them.
type entry struct {
	key         string
	value       float64
	category    string
	scarcity    int
	utility     int
	description string
}

var entries = []entry{
	{"bitcoin", 65000, "crypto", 95, 60, "digital store of value"},
	{"btc", 65000, "crypto", 95, 60, "scarce cryptocurrency"},
	{"ethereum", 3500, "crypto", 85, 80, "smart contract platform"},
	{"tesla", 45000, "vehicle", 40, 85, "electric vehicle"},
	{"car", 30000, "vehicle", 30, 90, "automobile"},
	{"lamborghini", 250000, "vehicle", 90, 30, "luxury supercar"},
	{"ferrari", 300000, "vehicle", 92, 35, "exotic sports car"},
	{"rolex", 15000, "luxury", 80, 25, "luxury timepiece"},
	{"watch", 3000, "accessory", 50, 40, "wristwatch"},
	{"iphone", 1200, "tech", 20, 95, "smartphone"},
	{"macbook", 2500, "tech", 25, 90, "laptop computer"},
	{"computer", 1500, "tech", 20, 90, "computer"},
	{"pizza", 15, "food", 5, 70, "food"},
	{"coffee", 5, "food", 5, 65, "beverage"},
	{"dinner", 50, "service", 10, 75, "meal"},
	{"hour of coding", 100, "service", 40, 90, "software development"},
	{"hour of labor", 25, "service", 30, 80, "manual labor"},
	{"camel", 5000, "animal", 70, 60, "transport animal"},
	{"horse", 5000, "animal", 60, 65, "riding animal"},
	{"yacht", 500000, "luxury", 95, 20, "marine vessel"},
	{"mansion", 2000000, "property", 90, 60, "luxury home"},
	{"house", 400000, "property", 50, 95, "residence"},
	{"land", 100000, "property", 80, 70, "acre of land"},
	{"picasso", 5000000, "art", 98, 10, "masterpiece artwork"},
	{"painting", 5000, "art", 40, 30, "artwork"},
	{"gold", 60000, "commodity", 85, 50, "precious metal"},
	{"diamond", 10000, "commodity", 80, 20, "gemstone"},
	{"vintage", 8000, "collectible", 85, 25, "vintage item"},
	{"antique", 6000, "collectible", 80, 20, "antique item"},
	{"chair", 150, "furniture", 10, 70, "furniture"},
	{"furniture", 500, "furniture", 20, 75, "household items"},
	{"bike", 800, "vehicle", 20, 85, "bicycle"},
	{"motorcycle", 12000, "vehicle", 45, 75, "motorcycle"},
	{"book", 20, "media", 5, 60, "book"},
	{"plane", 5000000, "vehicle", 95, 40, "aircraft"},
}

// categoryRule maps any of its patterns to a default profile.
type categoryRule struct {
	patterns []string
	entry
}

var categoryRules = []categoryRule{
	{
		patterns: []string{"crypto", "coin"},
		entry:    entry{"crypto", 1000, "crypto", 70, 50, "cryptocurrency"},
	},
	{
		patterns: []string{"service", "hour", "work"},
		entry:    entry{"service", 50, "service", 30, 80, "professional service"},
	},
	{
		patterns: []string{"art", "sculpture", "statue"},
		entry:    entry{"art", 2000, "art", 70, 20, "art piece"},
	},
	{
		patterns: []string{"jewelry", "ring", "necklace"},
		entry:    entry{"jewelry", 3000, "luxury", 75, 20, "jewelry"},
	},
}
