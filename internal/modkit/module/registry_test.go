package module

import "testing"

type attendancePorts struct{ Service string }

func TestRegistry_PortsAs(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("attendance", attendancePorts{Service: "svc"})

	got, ok := PortsAs[attendancePorts]("attendance")
	if !ok || got.Service != "svc" {
		t.Fatalf("PortsAs = %+v, %v", got, ok)
	}
	if _, ok := PortsAs[string]("attendance"); ok {
		t.Fatal("wrong type should not assert")
	}
	if _, ok := PortsAs[attendancePorts]("messages"); ok {
		t.Fatal("missing name should not resolve")
	}
}
