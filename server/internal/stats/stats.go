package stats

// Record is one country's disease totals.
type Record struct {
	Country      string `json:"country"`
	Population   int64  `json:"population"`
	Cases        int64  `json:"cases"`
	Deaths       int64  `json:"deaths"`
	Vaccinations int64  `json:"vaccinations"`
}

// seed is the process-wide data set. Read-only after init.
var seed = [...]Record{
	{Country: "USA", Population: 331000000, Cases: 1000000, Deaths: 50000, Vaccinations: 900000},
	{Country: "UK", Population: 67000000, Cases: 500000, Deaths: 20000, Vaccinations: 450000},
}

// All returns a copy of every seeded record, in seed order.
func All() []Record {
	out := make([]Record, len(seed))
	copy(out, seed[:])
	return out
}

// Len reports how many records are seeded.
func Len() int { return len(seed) }
