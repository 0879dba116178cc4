package escrow

import "testing"

func TestIBCDenomSingleHop(t *testing.T) {
	t.Parallel()

	got := IBCDenom("transfer", "channel-141", "uatom")
	want := "ibc/16D4D17E9AE25E6C07487244BA89CF0F19BF47859EDDD0FCB99AB13BDF8B87C8"
	if got != want {
		t.Fatalf("IBCDenom() = %q, want %q", got, want)
	}
}

func TestIBCDenomMultiHop(t *testing.T) {
	t.Parallel()

	// Multi-hop denom, base already contains a slash-joined pair, included
	// verbatim in the hashed string per invariant H1.
	got := IBCDenomFromPath("transfer/channel-7", "transfer/channel-3/uatom")
	want := "ibc/610C394848300F313AA24541D62C39343D7AD3DEA515FFAAFB5EF18D6CEC44EA"
	if got != want {
		t.Fatalf("IBCDenomFromPath() = %q, want %q", got, want)
	}
}

func TestIBCDenomEmptyPathReturnsBase(t *testing.T) {
	t.Parallel()

	if got := IBCDenomFromPath("", "uatom"); got != "uatom" {
		t.Fatalf("IBCDenomFromPath with empty path = %q, want base denom unchanged", got)
	}
}

func TestIBCDenomDeterministic(t *testing.T) {
	t.Parallel()

	a := IBCDenom("transfer", "channel-0", "uosmo")
	b := IBCDenom("transfer", "channel-0", "uosmo")
	if a != b {
		t.Fatalf("IBCDenom is not deterministic: %q != %q", a, b)
	}
}

func TestIBCDenomInjectiveOverDistinctTriples(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	triples := [][3]string{
		{"transfer", "channel-0", "uatom"},
		{"transfer", "channel-1", "uatom"},
		{"transfer", "channel-0", "uosmo"},
		{"icahost", "channel-0", "uatom"},
	}
	for _, tr := range triples {
		d := IBCDenom(tr[0], tr[1], tr[2])
		if seen[d] {
			t.Fatalf("collision for %v", tr)
		}
		seen[d] = true
	}
}
