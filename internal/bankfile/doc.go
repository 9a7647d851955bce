// Package bankfile reads and writes bank definitions in YAML.
//
// A bank file describes one bank, or several under a banks list:
//
//	bank:
//	  name: My Bank
//	  presets:
//	    A:
//	      name: DRIVE
//	      toggle_name: CLEAN
//	      toggle_mode: true
//	      actions:
//	        - type: press
//	          channel: 2
//	          control_change: {number: 7, value: 64}
//	          messages:
//	            - program_change: 5
//	              channel: 3
//	              toggle_position: 2
//	    expression1:
//	      messages:
//	        - expression_cc: {number: 11, min: 0, max: 127}
//
// Footswitch presets are keyed A-L; expression pedals are expression1 and
// expression2. Presets not listed keep the device defaults.
//
// A message's channel is taken from its value mapping, then from the message
// entry, then from the action, and defaults to 1.
package bankfile
