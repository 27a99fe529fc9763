package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racesim/pkg/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid catalog")
)

//go:embed default.yaml
var defaultData []byte

const (
	minSkill = 1
	maxSkill = 10
)

type (
	Team struct {
		Key         string
		Name        string
		CarModel    string
		Performance float64
		Budget      int64
	}
	Driver struct {
		Name  string
		Team  string // team key
		Skill model.SkillProfile
	}

	// Catalog is immutable after loading
	Catalog struct {
		teams    []Team
		drivers  []Driver
		circuits []model.Circuit
	}
)

// yaml representation
type (
	fileData struct {
		Teams    []teamData    `yaml:"teams"`
		Drivers  []driverData  `yaml:"drivers"`
		Circuits []circuitData `yaml:"circuits"`
	}
	teamData struct {
		Key         string  `yaml:"key"`
		Name        string  `yaml:"name"`
		CarModel    string  `yaml:"carModel"`
		Performance float64 `yaml:"performance"`
		Budget      int64   `yaml:"budget"`
	}
	skillData struct {
		Speed       int `yaml:"speed"`
		Cornering   int `yaml:"cornering"`
		Overtaking  int `yaml:"overtaking"`
		Consistency int `yaml:"consistency"`
		Aggression  int `yaml:"aggression"`
		Strategy    int `yaml:"strategy"`
	}
	driverData struct {
		Name  string    `yaml:"name"`
		Team  string    `yaml:"team"`
		Skill skillData `yaml:"skill"`
	}
	circuitData struct {
		Key            string  `yaml:"key"`
		Name           string  `yaml:"name"`
		Country        string  `yaml:"country"`
		BaseLapSeconds float64 `yaml:"baseLapSeconds"`
		Laps           int     `yaml:"laps"`
		PitStopSeconds float64 `yaml:"pitStopSeconds"`
		Corners        int     `yaml:"corners"`
		Difficulty     int     `yaml:"difficulty"`
	}
)

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a yaml file
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates yaml catalog data
func Parse(data []byte) (*Catalog, error) {
	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	c := &Catalog{
		teams: lo.Map(fd.Teams, func(t teamData, _ int) Team {
			return Team(t)
		}),
		drivers: lo.Map(fd.Drivers, func(d driverData, _ int) Driver {
			return Driver{Name: d.Name, Team: d.Team, Skill: model.SkillProfile(d.Skill)}
		}),
		circuits: lo.Map(fd.Circuits, func(c circuitData, _ int) model.Circuit {
			return model.Circuit(c)
		}),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the preconditions the simulation relies on
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.drivers) == 0 {
		errs = append(errs, errors.New("no drivers"))
	}
	if len(c.circuits) == 0 {
		errs = append(errs, errors.New("no circuits"))
	}
	for _, k := range lo.FindDuplicates(lo.Map(c.teams, func(t Team, _ int) string {
		return strings.ToLower(t.Key)
	})) {
		errs = append(errs, fmt.Errorf("duplicate team %q", k))
	}
	for _, n := range lo.FindDuplicates(lo.Map(c.drivers, func(d Driver, _ int) string {
		return strings.ToLower(d.Name)
	})) {
		errs = append(errs, fmt.Errorf("duplicate driver %q", n))
	}
	for _, k := range lo.FindDuplicates(lo.Map(c.circuits, func(ci model.Circuit, _ int) string {
		return strings.ToLower(ci.Key)
	})) {
		errs = append(errs, fmt.Errorf("duplicate circuit %q", k))
	}
	for _, d := range c.drivers {
		if d.Name == "" {
			errs = append(errs, errors.New("driver without name"))
		}
		if _, err := c.Team(d.Team); err != nil {
			errs = append(errs, fmt.Errorf("driver %q: unknown team %q", d.Name, d.Team))
		}
		for _, v := range d.Skill.Values() {
			if v < minSkill || v > maxSkill {
				errs = append(errs, fmt.Errorf("driver %q: skill %d out of range", d.Name, v))
				break
			}
		}
	}
	for _, ci := range c.circuits {
		if ci.BaseLapSeconds <= 0 || ci.PitStopSeconds <= 0 || ci.Laps < 1 {
			errs = append(errs, fmt.Errorf("circuit %q: invalid parameters", ci.Key))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Catalog) Teams() []Team {
	return slices.Clone(c.teams)
}

func (c *Catalog) Drivers() []Driver {
	return slices.Clone(c.drivers)
}

func (c *Catalog) Circuits() []model.Circuit {
	return slices.Clone(c.circuits)
}

// Team looks up a team by key (case insensitive)
func (c *Catalog) Team(key string) (Team, error) {
	t, ok := lo.Find(c.teams, func(t Team) bool { return strings.EqualFold(t.Key, key) })
	if !ok {
		return Team{}, fmt.Errorf("team %q: %w", key, ErrNotFound)
	}
	return t, nil
}

// Driver looks up a driver by full name (case insensitive)
func (c *Catalog) Driver(name string) (Driver, error) {
	d, ok := lo.Find(c.drivers, func(d Driver) bool { return strings.EqualFold(d.Name, name) })
	if !ok {
		return Driver{}, fmt.Errorf("driver %q: %w", name, ErrNotFound)
	}
	return d, nil
}

func (c *Catalog) Circuit(key string) (model.Circuit, error) {
	ci, ok := lo.Find(c.circuits, func(ci model.Circuit) bool {
		return strings.EqualFold(ci.Key, key)
	})
	if !ok {
		return model.Circuit{}, fmt.Errorf("circuit %q: %w", key, ErrNotFound)
	}
	return ci, nil
}

// DriversOf returns the drivers of a team in catalog order
func (c *Catalog) DriversOf(teamKey string) ([]Driver, error) {
	t, err := c.Team(teamKey)
	if err != nil {
		return nil, err
	}
	return lo.Filter(c.drivers, func(d Driver, _ int) bool {
		return strings.EqualFold(d.Team, t.Key)
	}), nil
}

// TeamName returns the display name of the driver's team
func (c *Catalog) TeamName(d Driver) string {
	if t, err := c.Team(d.Team); err == nil {
		return t.Name
	}
	return d.Team
}

// Field builds the grid: the directed driver first, followed by all other
// drivers in catalog order.
func (c *Catalog) Field(directed Driver) ([]model.Participant, error) {
	if _, err := c.Driver(directed.Name); err != nil {
		return nil, err
	}
	ret := make([]model.Participant, 0, len(c.drivers))
	p := model.NewParticipant(directed.Name, c.TeamName(directed), directed.Skill)
	p.Directed = true
	ret = append(ret, p)
	for _, d := range c.drivers {
		if strings.EqualFold(d.Name, directed.Name) {
			continue
		}
		ret = append(ret, model.NewParticipant(d.Name, c.TeamName(d), d.Skill))
	}
	return ret, nil
}

// AutomatedField returns all drivers in catalog order without a directed participant
func (c *Catalog) AutomatedField() []model.Participant {
	return lo.Map(c.drivers, func(d Driver, _ int) model.Participant {
		return model.NewParticipant(d.Name, c.TeamName(d), d.Skill)
	})
}
