package testorganism

import "testing"

func buildVessels() *VesselNet {
	v := NewVesselNet(3)
	v.MarkStart("heart")
	v.Connect("heart", "aorta", 1)
	v.Connect("aorta", "kidney", 2)
	v.Connect("aorta", "liver", 1)
	v.Connect("liver", "kidney", 1)
	return v
}

func TestVesselNetDistanceShortestPath(t *testing.T) {
	v := buildVessels()

	if got := v.Distance("heart", "kidney"); got != 3 {
		t.Fatalf("expected shortest path heart->aorta->kidney weight 3, got %v", got)
	}
}

func TestVesselNetDistanceUnreachableFallsBackToTwiceMaxCycle(t *testing.T) {
	v := buildVessels()
	v.AddVessel("islet")

	if got := v.Distance("islet", "kidney"); got != 6 {
		t.Fatalf("expected 2*max_cycle=6 for unreachable pair, got %v", got)
	}
}

func TestVesselNetUpstreamDownstream(t *testing.T) {
	v := buildVessels()

	down := v.Downstream("aorta")
	if len(down) != 2 {
		t.Fatalf("expected aorta to have 2 downstream vessels, got %d", len(down))
	}

	up := v.Upstream("kidney")
	if len(up) != 2 {
		t.Fatalf("expected kidney to have 2 upstream vessels, got %d", len(up))
	}
}

func TestVesselNetStartVessels(t *testing.T) {
	v := buildVessels()
	start := v.StartVessels()
	if len(start) != 1 || start[0] != "heart" {
		t.Fatalf("expected [heart], got %v", start)
	}
}

func buildNerves() *NerveNet {
	n := NewNerveNet()
	n.Connect("brain", "spinalCord")
	n.Connect("spinalCord", "fingertip")
	n.MarkTerminal("fingertip")
	return n
}

func TestNerveNetUplinkDownlink(t *testing.T) {
	n := buildNerves()

	down := n.Downlink("brain")
	if len(down) != 1 || down[0] != "spinalCord" {
		t.Fatalf("expected brain -> [spinalCord], got %v", down)
	}

	up := n.Uplink("fingertip")
	if len(up) != 1 || up[0] != "spinalCord" {
		t.Fatalf("expected fingertip upstream [spinalCord], got %v", up)
	}
}

func TestNerveNetTerminalNerves(t *testing.T) {
	n := buildNerves()
	terminal := n.TerminalNerves()
	if len(terminal) != 1 || terminal[0] != "fingertip" {
		t.Fatalf("expected [fingertip], got %v", terminal)
	}
}

func TestOrganismBundlesVesselsAndNerves(t *testing.T) {
	o := New(3)
	o.Vessels().Connect("heart", "aorta", 1)
	o.Nerves().Connect("brain", "spinalCord")

	if got := o.Vessels().Distance("heart", "aorta"); got != 1 {
		t.Fatalf("expected distance 1, got %v", got)
	}
	if down := o.Nerves().Downlink("brain"); len(down) != 1 {
		t.Fatalf("expected 1 downlink from brain, got %d", len(down))
	}
}
