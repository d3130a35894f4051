// Package milenage implements the 3GPP TS 35.206 MILENAGE algorithm set
// (f1, f1*, f2, f3, f4, f5, f5*) and the OPc derivation it depends on.
// The seven functions share the AES-128 "calculate output" template TS
// 35.206 §4.1 describes; only f1/f1* deviate, folding SQN and AMF into
// the rotated block instead of RAND alone.
package milenage

import (
	"crypto/aes"
	"fmt"
)

const blockSize = 16

// rotation distances (in bytes) and XOR constants for f2..f5*, per TS
// 35.206 §4.1's (r2..r5, c2..c5) table. f1 uses r1=8 bytes (64 bits)
// and c1=0 but is computed by f1Base below rather than this template,
// because its rotated input is SQN||AMF||SQN||AMF, not RAND.
const (
	r1 = 8
	r2 = 0
	r3 = 4
	r4 = 8
	r5 = 12
)

var (
	c1 = [blockSize]byte{}
	c2 = constant(0x01)
	c3 = constant(0x02)
	c4 = constant(0x04)
	c5 = constant(0x08)
)

func constant(last byte) [blockSize]byte {
	var c [blockSize]byte
	c[blockSize-1] = last
	return c
}

// ComputeOPc derives OPc = E_K(OP) XOR OP.
func ComputeOPc(k, op []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}
	if len(op) != blockSize {
		return nil, fmt.Errorf("milenage: op must be %d bytes, got %d", blockSize, len(op))
	}
	enc, err := encryptBlock(k, op)
	if err != nil {
		return nil, err
	}
	return xor(enc, op), nil
}

func checkKey(k []byte) error {
	if len(k) != blockSize {
		return fmt.Errorf("milenage: k must be %d bytes, got %d", blockSize, len(k))
	}
	return nil
}

func encryptBlock(k, plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("milenage: aes key setup: %w", err)
	}
	out := make([]byte, blockSize)
	block.Encrypt(out, plain)
	return out, nil
}

func xor(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// rotateLeft returns a copy of b rotated left by n bytes: result[i] =
// b[(i+n) % len(b)].
func rotateLeft(b []byte, n int) []byte {
	l := len(b)
	out := make([]byte, l)
	for i := 0; i < l; i++ {
		out[i] = b[(i+n)%l]
	}
	return out
}

// temp computes TEMP = E_K(RAND XOR OPc), the shared first step of
// every MILENAGE function.
func temp(k, opc, rand []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}
	if len(opc) != blockSize {
		return nil, fmt.Errorf("milenage: opc must be %d bytes, got %d", blockSize, len(opc))
	}
	if len(rand) != blockSize {
		return nil, fmt.Errorf("milenage: rand must be %d bytes, got %d", blockSize, len(rand))
	}
	return encryptBlock(k, xor(rand, opc))
}

// calculateOutput implements the shared f2..f5* template: out = E_K(rot(TEMP XOR OPc, r) XOR c) XOR OPc.
func calculateOutput(k, opc, t []byte, rotBytes int, c [blockSize]byte) ([]byte, error) {
	rotated := rotateLeft(xor(t, opc), rotBytes)
	input := xor(rotated, c[:])
	enc, err := encryptBlock(k, input)
	if err != nil {
		return nil, err
	}
	return xor(enc, opc), nil
}

// f1Base computes the shared output block for f1 and f1*: MAC-A is its
// first 8 bytes, MAC-S its last 8.
func f1Base(k, opc, rand, sqn, amf []byte) ([]byte, error) {
	if len(sqn) != 6 {
		return nil, fmt.Errorf("milenage: sqn must be 6 bytes, got %d", len(sqn))
	}
	if len(amf) != 2 {
		return nil, fmt.Errorf("milenage: amf must be 2 bytes, got %d", len(amf))
	}
	t, err := temp(k, opc, rand)
	if err != nil {
		return nil, err
	}

	in1 := make([]byte, blockSize)
	copy(in1[0:6], sqn)
	copy(in1[6:8], amf)
	copy(in1[8:14], sqn)
	copy(in1[14:16], amf)

	rotated := rotateLeft(xor(in1, opc), r1)
	input := xor(rotated, t)
	enc, err := encryptBlock(k, input)
	if err != nil {
		return nil, err
	}
	return xor(enc, opc), nil
}

// F1 computes MAC-A, the network authentication code.
func F1(k, opc, rand, sqn, amf []byte) ([]byte, error) {
	out, err := f1Base(k, opc, rand, sqn, amf)
	if err != nil {
		return nil, err
	}
	return out[0:8], nil
}

// F1Star computes MAC-S, the re-synchronisation authentication code.
// Per TS 33.102 §6.3.3 callers should pass amf = 0x0000 for AUTS.
func F1Star(k, opc, rand, sqn, amf []byte) ([]byte, error) {
	out, err := f1Base(k, opc, rand, sqn, amf)
	if err != nil {
		return nil, err
	}
	return out[8:16], nil
}

// F2345 computes RES, CK, IK and AK in one pass since they share TEMP.
func F2345(k, opc, rand []byte) (res, ck, ik, ak []byte, err error) {
	t, err := temp(k, opc, rand)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	out2, err := calculateOutput(k, opc, t, r2, c2)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	res = out2[8:16]
	ak = out2[0:6]

	out3, err := calculateOutput(k, opc, t, r3, c3)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ck = out3

	out4, err := calculateOutput(k, opc, t, r4, c4)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ik = out4

	return res, ck, ik, ak, nil
}

// F5Star computes AK*, the anonymity key used when assembling AUTS.
func F5Star(k, opc, rand []byte) ([]byte, error) {
	t, err := temp(k, opc, rand)
	if err != nil {
		return nil, err
	}
	out5, err := calculateOutput(k, opc, t, r5, c5)
	if err != nil {
		return nil, err
	}
	return out5[0:6], nil
}
