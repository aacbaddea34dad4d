package logic

import (
	"math"
	"testing"
)

var proteinRest = StageSpec{Name: "Protein Rest", TempMin: 50, TempMax: 55}

func TestThreshold(t *testing.T) {
	got := DefaultPolicy().Threshold(proteinRest)
	if math.Abs(got-52.25) > 1e-9 {
		t.Errorf("threshold: got %v, want 52.25", got)
	}
}

func TestHysteresisBand(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		temp      float64
		startLit  bool
		wantLit   bool
		intensity float64
	}{
		{"at max extinguishes", 55, true, false, 0},
		{"below threshold lights", 52.0, false, true, 1},
		{"band holds lit", 53.0, true, true, 1},
		{"band holds unlit", 53.0, false, false, 0},
		{"just above threshold holds", 52.3, false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := RuntimeContext{Temperature: tt.temp, FlameActive: tt.startLit}
			cmd := p.Heat(&c, proteinRest, tt.temp)
			if c.FlameActive != tt.wantLit {
				t.Errorf("FlameActive: got %v, want %v", c.FlameActive, tt.wantLit)
			}
			if cmd.Active != tt.wantLit || cmd.Intensity != tt.intensity {
				t.Errorf("command: got %+v", cmd)
			}
		})
	}
}

func TestNoChatterInBand(t *testing.T) {
	p := DefaultPolicy()
	c := RuntimeContext{Temperature: 55}
	p.Heat(&c, proteinRest, 54.9)
	if c.FlameActive {
		t.Fatal("flame should be out at max")
	}

	// Cool through the band: stays out until below 52.25.
	prev := 55.0
	for temp := 54.9; temp > 52.3; temp -= 0.1 {
		c.Temperature = temp
		p.Heat(&c, proteinRest, prev)
		prev = temp
		if c.FlameActive {
			t.Fatalf("flame relit inside band at %v", temp)
		}
	}
	c.Temperature = 52.2
	p.Heat(&c, proteinRest, prev)
	if !c.FlameActive {
		t.Error("flame should relight below threshold")
	}
}

func TestDerivativeRelight(t *testing.T) {
	p := DefaultPolicy()
	p.Reignite = ReigniteDerivative

	c := RuntimeContext{Temperature: 54.8}
	p.Heat(&c, proteinRest, 54.8)
	if c.FlameActive {
		t.Error("steady temperature must not relight")
	}
	c.Temperature = 54.7
	p.Heat(&c, proteinRest, 54.8)
	if !c.FlameActive {
		t.Error("falling temperature should relight")
	}
	c.Temperature = 55
	p.Heat(&c, proteinRest, 54.7)
	if c.FlameActive {
		t.Error("max always extinguishes")
	}
}

func TestProportionalIntensity(t *testing.T) {
	p := DefaultPolicy()
	p.Heater = HeaterProportional
	p.ProportionalBase = 0.8

	tests := []struct {
		temp float64
		want float64
	}{
		{50, 0.8},
		{51.25, 0.6},
		{52.5, 0.4},
		{45, 0.8}, // below min clamps progress to 0
	}
	for _, tt := range tests {
		c := RuntimeContext{Temperature: tt.temp, FlameActive: true}
		cmd := p.Heat(&c, proteinRest, tt.temp)
		if !cmd.Active {
			t.Fatalf("temp %v: expected active heater", tt.temp)
		}
		if math.Abs(cmd.Intensity-tt.want) > 1e-9 {
			t.Errorf("temp %v: intensity got %v, want %v", tt.temp, cmd.Intensity, tt.want)
		}
		if c.Intensity != cmd.Intensity {
			t.Errorf("context intensity %v differs from command %v", c.Intensity, cmd.Intensity)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	mutate := []func(*Policy){
		func(p *Policy) { p.Bounds = "loose" },
		func(p *Policy) { p.Heater = "pid" },
		func(p *Policy) { p.Reignite = "never" },
		func(p *Policy) { p.StageEntry = "random" },
		func(p *Policy) { p.ToleranceFraction = 1 },
		func(p *Policy) { p.ProportionalBase = 1.5 },
	}
	for i, m := range mutate {
		p := DefaultPolicy()
		m(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("mutation %d: expected validation error", i)
		}
	}
}
