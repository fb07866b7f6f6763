package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		errColor.Fprintf(os.Stderr, "Unknown shell: %s\n", shell)
		fmt.Fprintln(os.Stderr, "Supported: bash, zsh, fish")
		os.Exit(1)
	}
}

const bashCompletion = `_sealsheet() {
    local cur prev words cword
    _init_completion || return

    local commands="encrypt decrypt init add show export rm ls status diff passwd compact keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        encrypt|decrypt)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-i --iterations -t --text" -- "$cur"))
            else
                _filedir
            fi
            ;;
        init|passwd)
            COMPREPLY=($(compgen -W "-i --iterations" -- "$cur"))
            ;;
        add)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--force --keep-existing --keep-both" -- "$cur"))
            else
                _filedir json
            fi
            ;;
        diff)
            _filedir json
            ;;
        show|rm|export)
            if [[ "$cmd" == export && "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-o --output" -- "$cur"))
                return
            fi
            # Complete with record keys from the archive
            local IFS=$'\n'
            local keys
            keys=$(sealsheet ls 2>/dev/null | sed -n 's/^  \(.*\) (.*, from .*)$/\1/p')
            COMPREPLY=($(compgen -W "$keys" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _sealsheet sealsheet
`

const zshCompletion = `#compdef sealsheet

_sealsheet() {
    local -a commands
    commands=(
        'encrypt:Encrypt text or a file (OpenSSL compatible)'
        'decrypt:Decrypt an encrypted text'
        'init:Create a .sealsheet archive in current directory'
        'add:Seal the records of a JSON export'
        'show:Decrypt and print records'
        'export:Print sealed lines for printing'
        'rm:Remove records from the archive'
        'ls:List sealed records'
        'status:Show archive status'
        'diff:Compare sealed records with a JSON export'
        'passwd:Change archive password'
        'compact:Compact archive to reclaim disk space'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'sealsheet commands' commands
            ;;
        args)
            case "${words[2]}" in
                encrypt|decrypt)
                    _arguments \
                        '(-i --iterations)'{-i,--iterations}'[PBKDF2 iterations]:count' \
                        '(-t --text)'{-t,--text}'[Text instead of a file]:text' \
                        '*:file:_files'
                    ;;
                init|passwd)
                    _arguments '(-i --iterations)'{-i,--iterations}'[PBKDF2 iterations]:count'
                    ;;
                add)
                    _arguments \
                        '--force[Replace conflicting records]' \
                        '--keep-existing[Keep sealed versions on conflict]' \
                        '--keep-both[Seal conflicting records under a new key]' \
                        '*:export file:_files -g "*.json"'
                    ;;
                diff)
                    _arguments '*:export file:_files -g "*.json"'
                    ;;
                show|rm)
                    _arguments '*:record:_sealsheet_keys'
                    ;;
                export)
                    _arguments \
                        '(-o --output)'{-o,--output}'[Write to file]:file:_files' \
                        '*:record:_sealsheet_keys'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'sealsheet commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_sealsheet_keys() {
    local -a keys
    keys=(${(f)"$(sealsheet ls 2>/dev/null | sed -n 's/^  \(.*\) (.*, from .*)$/\1/p')"})
    _describe -t keys 'sealed records' keys
}

_sealsheet "$@"
`

const fishCompletion = `# sealsheet fish completions

set -l commands encrypt decrypt init add show export rm ls status diff passwd compact keyring help completion

complete -c sealsheet -f

# Commands
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt text or a file'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt an encrypted text'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a .sealsheet archive'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a add -d 'Seal records of a JSON export'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a show -d 'Decrypt and print records'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a export -d 'Print sealed lines'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove records'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List sealed records'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show archive status'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with a JSON export'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change archive password'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact archive'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c sealsheet -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# flags and files
complete -c sealsheet -n "__fish_seen_subcommand_from encrypt decrypt init passwd" -s i -l iterations -r -d 'PBKDF2 iterations'
complete -c sealsheet -n "__fish_seen_subcommand_from encrypt decrypt" -s t -l text -r -d 'Text instead of a file'
complete -c sealsheet -n "__fish_seen_subcommand_from encrypt decrypt add diff" -F
complete -c sealsheet -n "__fish_seen_subcommand_from add" -l force -d 'Replace conflicting records'
complete -c sealsheet -n "__fish_seen_subcommand_from add" -l keep-existing -d 'Keep sealed versions'
complete -c sealsheet -n "__fish_seen_subcommand_from add" -l keep-both -d 'Seal under a new key'
complete -c sealsheet -n "__fish_seen_subcommand_from export" -s o -l output -r -F -d 'Write to file'

# record keys
complete -c sealsheet -n "__fish_seen_subcommand_from show rm export" -a "(sealsheet ls 2>/dev/null | sed -n 's/^  \(.*\) (.*, from .*)\$/\1/p')"

# keyring subcommands
complete -c sealsheet -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c sealsheet -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c sealsheet -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
