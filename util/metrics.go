// Package util holds small helpers shared by the txhandler services.
package util

// MetricsBucketsMicroSeconds are latency buckets from 128µs to 262ms, used for single
// transaction validation.
var MetricsBucketsMicroSeconds = []float64{
	128e-6, 256e-6, 512e-6, 1024e-6, 2048e-6, 4096e-6, 8192e-6, 16384e-6, 32768e-6, 65536e-6, 131072e-6, 262144e-6,
}

// MetricsBucketsMilliSeconds are latency buckets from 1ms to 4s, used for whole batches.
var MetricsBucketsMilliSeconds = []float64{
	1e-3, 2e-3, 4e-3, 16e-3, 32e-3, 64e-3, 128e-3, 256e-3, 512e-3, 1024e-3, 2048e-3, 4096e-3,
}

// MetricsBucketsCount are buckets for small counts such as selection sweeps.
var MetricsBucketsCount = []float64{
	0, 1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024,
}
