package telemetry

// DefaultStations are the stations of the Misa river basin that are monitored.
var DefaultStations = []string{
	"Misa",
	"Pianello di Ostra",
	"Nevola",
	"Barbara",
	"Serra dei Conti",
	"Arcevia",
}

// DefaultSensorTypes are the tipoSens codes kept by the extractor
// (0 = rainfall, 1 = temperature, ...).
var DefaultSensorTypes = []int{0, 1, 5, 6, 9, 10, 100}

// Catalog selects the stations and sensor types of interest.
// Station order is the tie-break order used when collecting values.
type Catalog struct {
	stations    []string
	stationSet  map[string]struct{}
	sensorTypes map[int]struct{}
}

// NewCatalog builds a Catalog. Duplicate station names keep their first position.
func NewCatalog(stations []string, sensorTypes []int) Catalog {
	c := Catalog{
		stationSet:  make(map[string]struct{}, len(stations)),
		sensorTypes: make(map[int]struct{}, len(sensorTypes)),
	}
	for _, s := range stations {
		if _, dup := c.stationSet[s]; dup {
			continue
		}
		c.stationSet[s] = struct{}{}
		c.stations = append(c.stations, s)
	}
	for _, t := range sensorTypes {
		c.sensorTypes[t] = struct{}{}
	}
	return c
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultStations, DefaultSensorTypes)
}

// Stations returns the catalog stations in declared order.
func (c Catalog) Stations() []string {
	out := make([]string, len(c.stations))
	copy(out, c.stations)
	return out
}

func (c Catalog) HasStation(name string) bool {
	_, ok := c.stationSet[name]
	return ok
}

func (c Catalog) HasSensorType(code int) bool {
	_, ok := c.sensorTypes[code]
	return ok
}
