/*
   Copyright 2014 Fritz Payment GmbH

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

/*
The vaultsim daemon simulates the PayPal vault carrier account endpoints and the
OAuth2 token endpoint in memory.

Point the SDK at it by setting the endpoint of the configuration (or
$PAYPAL_ENDPOINT) to the address vaultsim listens on. Confirmation PINs are
logged when a carrier account is created.

Usage:
  vaultsim [flags]

  Flags understood by vaultsim:
    -addr       Address to listen on. Defaults to 127.0.0.1:8089.
    -id         Accepted client id. Defaults to $PAYPAL_CLIENT_ID.
    -secret     Accepted client secret. Defaults to $PAYPAL_CLIENT_SECRET.
    -validity   How long created carrier accounts are valid, i.e. 720h.
    -log        Log level (debug, info, warn, error, crit).

  Example:
    PAYPAL_CLIENT_ID=client PAYPAL_CLIENT_SECRET=secret vaultsim -addr :8089 -log debug
*/
package main
