package router

import "testing"

func TestResolveOne(t *testing.T) {
	r := New("nyc_taxi_2023")

	if got := r.ResolveOne(""); got != "nyc_taxi_2023" {
		t.Errorf("empty hint should resolve to the default shard, got %q", got)
	}
	if got := r.ResolveOne("nyc_taxi_2022"); got != "nyc_taxi_2022" {
		t.Errorf("a requested key must be returned verbatim, got %q", got)
	}
}

func TestResolveMany_Singleton(t *testing.T) {
	r := New("nyc_taxi_2023")

	shards := r.ResolveMany("")
	if len(shards) != 1 || shards[0] != "nyc_taxi_2023" {
		t.Errorf("ResolveMany should currently return a singleton default, got %v", shards)
	}

	shards = r.ResolveMany("nyc_taxi_2022")
	if len(shards) != 1 || shards[0] != "nyc_taxi_2022" {
		t.Errorf("ResolveMany should echo the requested key, got %v", shards)
	}
}
