package oggstream

import "testing"

func TestPacketizerHeaderFraming(t *testing.T) {
	pz := NewPacketizer(0xF01353, 26)

	pz.Submit(Packet{Data: []byte("id-header"), Granule: 0, BOS: true})
	page, ok := pz.Flush()
	if !ok {
		t.Fatalf("flush after ID header returned no page")
	}
	if page.Header[5]&FlagBOS == 0 {
		t.Errorf("ID header page missing BOS flag")
	}

	pz.Submit(Packet{Data: []byte("comment-header"), Granule: 0})
	page, ok = pz.Flush()
	if !ok {
		t.Fatalf("flush after comment header returned no page")
	}
	if page.Header[5]&FlagBOS != 0 {
		t.Errorf("comment header page incorrectly carries BOS")
	}

	if _, ok := pz.Flush(); ok {
		t.Errorf("flush with nothing pending should return false")
	}
}

func TestPacketizerPageoutBatchesFullPage(t *testing.T) {
	pz := NewPacketizer(0xF01353, 26)

	for i := 0; i < 25; i++ {
		pz.Submit(Packet{Data: make([]byte, 160), Granule: uint64(i+1) * 960})
		if _, ok := pz.Pageout(); ok {
			t.Fatalf("pageout fired early at packet %d", i)
		}
	}

	pz.Submit(Packet{Data: make([]byte, 160), Granule: 26 * 960})
	page, ok := pz.Pageout()
	if !ok {
		t.Fatalf("pageout did not fire at 26 packets")
	}
	if len(page.Body) != 26*160 {
		t.Errorf("body length = %d, want %d", len(page.Body), 26*160)
	}
}

func TestPacketizerPageoutEmitsShortEOSPage(t *testing.T) {
	pz := NewPacketizer(0xF01353, 26)

	for i := 0; i < 5; i++ {
		pz.Submit(Packet{Data: make([]byte, 160), Granule: uint64(i+1) * 960})
	}
	pz.Submit(Packet{Data: make([]byte, 160), Granule: 6 * 960, EOS: true})

	page, ok := pz.Pageout()
	if !ok {
		t.Fatalf("pageout did not fire for EOS-terminated short page")
	}
	if page.Header[5]&FlagEOS == 0 {
		t.Errorf("terminal page missing EOS flag")
	}
	if len(page.Body) != 6*160 {
		t.Errorf("short page body length = %d, want %d", len(page.Body), 6*160)
	}
}

func TestPacketizerResetRealignsPageSequence(t *testing.T) {
	pz := NewPacketizer(0xF01353, 26)
	pz.Submit(Packet{Data: []byte("x"), BOS: true})
	pz.Flush()
	pz.Submit(Packet{Data: []byte("y")})
	pz.Flush()

	// Simulate a seek landing on audio page index 10: resume page sequence
	// is 2 (header pages) + 10.
	pz.Reset(0xF01353, 12)

	pz.Submit(Packet{Data: make([]byte, 160), Granule: 11 * 960})
	page, ok := pz.Flush()
	if !ok {
		t.Fatalf("flush after reset returned no page")
	}
	if page.Header[5] != 0 {
		t.Errorf("page after reset should carry no flags, got %#x", page.Header[5])
	}

	const wantSeq = 12
	if got := pageSeqOf(page); got != wantSeq {
		t.Errorf("page sequence after reset = %d, want %d", got, wantSeq)
	}
}

func pageSeqOf(p Page) uint32 {
	return uint32(p.Header[18]) | uint32(p.Header[19])<<8 | uint32(p.Header[20])<<16 | uint32(p.Header[21])<<24
}
