package model

// PaddedBatch is a row-major [N, Length, 4] integer array.
type PaddedBatch struct {
	N      int
	Length int
	Data   []int32
}

const WordFields = 4

func NewPaddedBatch(n, length int) PaddedBatch {
	return PaddedBatch{N: n, Length: length, Data: make([]int32, n*length*WordFields)}
}

func (b PaddedBatch) Shape() [3]int {
	return [3]int{b.N, b.Length, WordFields}
}

func (b PaddedBatch) offset(i, j int) int {
	return (i*b.Length + j) * WordFields
}

func (b PaddedBatch) At(i, j int) Word {
	o := b.offset(i, j)
	return Word{
		NewBar:   int(b.Data[o]),
		Position: int(b.Data[o+1]),
		Pitch:    int(b.Data[o+2]),
		Duration: int(b.Data[o+3]),
	}
}

func (b PaddedBatch) Set(i, j int, w Word) {
	o := b.offset(i, j)
	b.Data[o] = int32(w.NewBar)
	b.Data[o+1] = int32(w.Position)
	b.Data[o+2] = int32(w.Pitch)
	b.Data[o+3] = int32(w.Duration)
}

// Row returns sequence i including its padding.
func (b PaddedBatch) Row(i int) Sequence {
	res := make(Sequence, b.Length)
	for j := range res {
		res[j] = b.At(i, j)
	}
	return res
}
