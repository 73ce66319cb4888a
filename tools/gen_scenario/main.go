// Command gen_scenario writes deterministic scenario documents for
// benchmarking: the IJRR case study plus randomized surveillance
// variants with configurable region counts.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/Charlie0257/reactive-ltl/internal/sim"
)

func main() {
	var (
		outDir   = flag.String("out", "scenarios", "output directory")
		seed     = flag.Int64("seed", 42, "generator seed")
		count    = flag.Int("count", 3, "number of randomized variants")
		visits   = flag.Int("visits", 4, "surveillance regions per variant")
		requests = flag.Int("requests", 2, "local requests per variant")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	write := func(name string, s *sim.Scenario) {
		path := filepath.Join(*outDir, name)
		if err := s.Save(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}

	write("ijrr.yaml", sim.IJRRScenario())

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *count; i++ {
		write(fmt.Sprintf("random_%02d.yaml", i), randomScenario(rng, i, *visits, *requests))
	}
}

// randomScenario places non-overlapping surveillance discs in a 4x4
// workspace, plus one obstacle disc at a random spot kept clear of the
// central start, and a few request discs.
func randomScenario(rng *rand.Rand, index, visits, requests int) *sim.Scenario {
	const size = 4.0
	s := &sim.Scenario{
		Name:     fmt.Sprintf("random-%02d", index),
		Boundary: sim.RegionSpec{Kind: "box", Ranges: [][2]float64{{0, size}, {0, size}}},
		Robot: sim.RobotSpec{
			Name:          "unit",
			Init:          []float64{size / 2, size / 2},
			StepSize:      0.4,
			Diameter:      0.05,
			SensingRadius: 0.6,
		},
		LocalSpec: map[string]int{"survivor": 0, "fire": 1},
		Iterations: 2000,
		Eta:        [2]float64{0.2, 0.5},
		Seed:       int64(1000 + index),
		Cycles:     2,
	}

	var centers [][2]float64
	place := func(radius float64) [2]float64 {
		for {
			c := [2]float64{
				radius + rng.Float64()*(size-2*radius),
				radius + rng.Float64()*(size-2*radius),
			}
			// keep the robot's start clear
			dx, dy := c[0]-size/2, c[1]-size/2
			ok := dx*dx+dy*dy > (radius+0.3)*(radius+0.3)
			for _, o := range centers {
				dx, dy := c[0]-o[0], c[1]-o[1]
				if dx*dx+dy*dy < 4*radius*radius {
					ok = false
					break
				}
			}
			if ok {
				centers = append(centers, c)
				return c
			}
		}
	}

	for i := 0; i < visits; i++ {
		c := place(0.3)
		sym := fmt.Sprintf("r%d", i+1)
		s.Regions = append(s.Regions, sim.RegionSpec{
			Kind: "ball", Center: []float64{c[0], c[1]}, Radius: 0.3, Symbols: []string{sym},
		})
		s.Mission.Visit = append(s.Mission.Visit, sym)
	}
	s.Mission.Kind = "surveillance"

	obstacle := place(0.25)
	s.Regions = append(s.Regions, sim.RegionSpec{
		Kind: "ball", Center: []float64{obstacle[0], obstacle[1]}, Radius: 0.25, Symbols: []string{"o1"},
	})
	s.Mission.Avoid = []string{"o1"}

	names := []string{"survivor", "fire"}
	for i := 0; i < requests; i++ {
		c := place(0.2)
		name := names[i%len(names)]
		s.Requests = append(s.Requests, sim.RequestSpec{
			Name: name,
			Region: sim.RegionSpec{
				Kind: "ball", Center: []float64{c[0], c[1]}, Radius: 0.2, Symbols: []string{name},
			},
		})
	}
	return s
}
