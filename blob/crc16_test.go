package blob

import "testing"

func TestCRC16Empty(t *testing.T) {
	if crc := CRC16(nil); crc != 0xFFFF {
		t.Errorf("Expected 0xFFFF for empty input, got 0x%04X", crc)
	}
}

func TestCRC16Consistency(t *testing.T) {
	data := []byte(`{"fpos":5000,"fdir":0}`)

	crc1 := CRC16(data)
	crc2 := CRC16(data)
	if crc1 != crc2 {
		t.Errorf("CRC16 not consistent: first=%04X, second=%04X", crc1, crc2)
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{1, 2, 3})
	crc2 := CRC16([]byte{1, 2, 4})
	if crc1 == crc2 {
		t.Errorf("Different data produced same CRC: %04X", crc1)
	}
}

func TestCRC16Incremental(t *testing.T) {
	a, b := []byte("/board_config.jsn"), []byte(`{"board":"PRO2EULN2003"}`)
	whole := CRC16(append(append([]byte{}, a...), b...))
	if got := crc16Update(CRC16(a), b); got != whole {
		t.Errorf("Incremental CRC %04X != one-shot %04X", got, whole)
	}
}
