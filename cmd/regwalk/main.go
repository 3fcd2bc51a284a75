// Command regwalk walks Windows registry hive files into attribute trees and
// manages stored snapshots of the result.
package main

func main() {
	execute()
}
