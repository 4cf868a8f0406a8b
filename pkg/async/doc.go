// Package async provides bounded-concurrency helpers used by background
// jobs, such as the periodic update sweep that probes every installed
// plugin against its source.
package async
