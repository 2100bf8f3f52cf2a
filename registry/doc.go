// Package registry tracks the live instances created from one loaded FMU
// module.
//
// Every instantiate call inserts the instance into its module's table and
// every free removes it. The table is the ownership record the runtime
// consults before unloading a shared library: unloading with live entries
// is a programming error, because the native code backing those instances
// would disappear under them.
//
// Observers can subscribe to lifecycle events, which the runtime uses for
// debug logging.
package registry
