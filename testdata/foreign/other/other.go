package other

var Gain float32
