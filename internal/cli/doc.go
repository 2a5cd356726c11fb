// Package cli provides the interactive mima command-line front end.
//
// It is the presentation collaborator of the vault: it collects plaintext
// field values and passphrases from the terminal, hands them to the vault
// service and renders whatever views come back. It never sees ciphertext.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Commands that take an id accept it as an argument or prompt for it:
//
//	init                   create the vault passphrase
//	login / logout         open or close the session
//	status                 show the session state
//	passwd                 change the vault passphrase
//	list / search <text>   list active records, secrets masked
//	add / edit <id>        create or change a record
//	show <id>              show a record with secrets revealed
//	fav <id> [on|off]      flag a record as favorite
//	delete <id>            move a record to the recycle bin
//	bin                    list the recycle bin
//	recover <id>           restore a record from the recycle bin
//	purge <id>             remove a record for good
//	history <id>           list the snapshots of a record
//	hshow / hpurge <id>    show or remove one snapshot
//	backup                 upload an encrypted backup
//	restore <file>         add the records of a backup file
package cli
